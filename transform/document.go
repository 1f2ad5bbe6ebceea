package transform

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// docTransform is the optional robot_map.transform mapping: scale,
// rotation (radians) and translation applied between the robot and
// reference frames outside the triangulated region. Omitting the whole
// block is equivalent to identity.
type docTransform struct {
	Scale       *[2]float64 `yaml:"scale"`
	Rotation    *float64    `yaml:"rotation"`
	Translation *[2]float64 `yaml:"translation"`
}

// docMap is the on-disk shape of a single map's calibration entry, decoded
// the way mesh.Config's vacuum/reference entries are: yaml.v3 into a plain
// struct, with coordinates left as raw float pairs until validation.
type docMap struct {
	Name                 string        `yaml:"name"`
	ImageFile            string        `yaml:"image_file"`
	Size                 [2]float64    `yaml:"size"`
	CorrespondencePoints [][2]float64  `yaml:"correspondence_points"`
	Transform            *docTransform `yaml:"transform"`
}

func (d docMap) toDescriptor() MapDescriptor {
	pts := make([]Point, len(d.CorrespondencePoints))
	for i, c := range d.CorrespondencePoints {
		pts[i] = Point{X: c[0], Y: c[1]}
	}
	return MapDescriptor{
		Name:      d.Name,
		ImageFile: d.ImageFile,
		Width:     d.Size[0],
		Height:    d.Size[1],
		Points:    pts,
	}
}

// Document is the decoded shape of a calibration YAML file.
//
//	ref_map:
//	  name: reference
//	  image_file: reference.png
//	  size: [4000, 3000]
//	  correspondence_points: [[120, 80], [3800, 90], ...]
//	robot_map:
//	  name: vacuum-01
//	  image_file: robot.png
//	  size: [2500, 2100]
//	  correspondence_points: [[40, 35], [2300, 50], ...]
//	  transform:
//	    scale: [1, 1]
//	    rotation: 0
//	    translation: [30, 20]
//
// base_map is accepted as a legacy alias for ref_map, matching the way
// mesh.Config carries forward older key names during a schema migration.
type Document struct {
	RefMap   *docMap `yaml:"ref_map"`
	BaseMap  *docMap `yaml:"base_map"`
	RobotMap *docMap `yaml:"robot_map"`
}

func (doc *Document) refDescriptor() (MapDescriptor, error) {
	m := doc.RefMap
	if m == nil {
		m = doc.BaseMap
	}
	if m == nil {
		return MapDescriptor{}, fmt.Errorf("document missing ref_map (or legacy base_map)")
	}
	if m.Name == "" {
		return MapDescriptor{}, ErrEmptyMapName
	}
	return m.toDescriptor(), nil
}

func (doc *Document) robotDescriptor() (MapDescriptor, error) {
	if doc.RobotMap == nil {
		return MapDescriptor{}, fmt.Errorf("document missing robot_map")
	}
	if doc.RobotMap.Name == "" {
		return MapDescriptor{}, ErrEmptyMapName
	}
	return doc.RobotMap.toDescriptor(), nil
}

// globalAffine resolves robot_map.transform, defaulting every omitted
// field to identity per section 3: sx = sy = 1, theta = 0, tx = ty = 0.
func (doc *Document) globalAffine() GlobalAffine {
	g := GlobalAffine{Sx: 1, Sy: 1}
	if doc.RobotMap == nil || doc.RobotMap.Transform == nil {
		return g
	}
	t := doc.RobotMap.Transform
	if t.Scale != nil {
		g.Sx, g.Sy = t.Scale[0], t.Scale[1]
	}
	if t.Rotation != nil {
		g.Rotation = *t.Rotation
	}
	if t.Translation != nil {
		g.Tx, g.Ty = t.Translation[0], t.Translation[1]
	}
	return g
}

// ParseDocument decodes a calibration document from raw YAML bytes.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, inputFault("document.parse", fmt.Errorf("decode yaml: %w", err))
	}
	if doc.RefMap == nil && doc.BaseMap == nil && doc.RobotMap == nil {
		return nil, inputFault("document.parse", fmt.Errorf("document is empty"))
	}
	return &doc, nil
}

// LoadDocumentFile reads and decodes a calibration document from disk,
// following the same read-then-unmarshal shape as mesh.LoadConfig.
func LoadDocumentFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, inputFault("document.read", fmt.Errorf("read %s: %w", path, err))
	}
	return ParseDocument(data)
}
