package transform

// LoadEngineFile reads a calibration document from path, validates it and
// builds a freshly loaded Engine from it, mirroring the read-decode-
// validate sequence of mesh.LoadConfig but producing a loaded Engine
// instead of a raw Config struct. checkImages controls whether declared
// map sizes are cross-checked against the backing image files (section
// 4.3 check 6); useIndex opts the engine into the grid spatial index.
func LoadEngineFile(path string, checkImages, useIndex bool) (*Engine, error) {
	doc, err := LoadDocumentFile(path)
	if err != nil {
		return nil, err
	}
	return LoadEngineDocument(doc, checkImages, useIndex)
}

// LoadEngineDocument builds a freshly loaded Engine from an already-
// decoded Document.
func LoadEngineDocument(doc *Document, checkImages, useIndex bool) (*Engine, error) {
	var checker ImageDimensionChecker
	if checkImages {
		checker = FileImageChecker{}
	}

	e := NewEngine()
	if err := e.Load(doc, checker, useIndex); err != nil {
		return nil, err
	}
	return e, nil
}
