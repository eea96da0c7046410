// Package labels - Named class sets for semantic segmentation datasets.
package labels

import "github.com/pkg/errors"

// SetName identifies a dataset's label convention.
type SetName string

const (
	// SetVOC is Pascal VOC semantic segmentation: background plus 20 classes.
	SetVOC SetName = "voc"
	// SetCamVid is the 11-class CamVid road-scene set.
	SetCamVid SetName = "camvid"
)

// ErrUnknownSet is returned when a set name has not been registered.
var ErrUnknownSet = errors.New("unknown label set")

// Class represents one segmentation label.
type Class struct {
	// The integer id found in label maps.
	Index int
	// The human-readable label.
	Name string
}

// Set ties a name to its ordered list of classes. Class i has Index i.
type Set struct {
	Name    SetName
	Classes []Class
	// nameToIdx for fast lookup by name
	nameToIdx map[string]int
}

// NewSet builds a set whose class ids follow the order of names.
func NewSet(name SetName, names ...string) *Set {
	s := &Set{Name: name, Classes: make([]Class, len(names)), nameToIdx: make(map[string]int, len(names))}
	for i, n := range names {
		s.Classes[i] = Class{Index: i, Name: n}
		s.nameToIdx[n] = i
	}
	return s
}

// Len returns the number of classes, which is the n_class of an evaluation.
func (s *Set) Len() int {
	return len(s.Classes)
}

// NameOf returns the class name for idx.
func (s *Set) NameOf(idx int) (string, error) {
	if idx < 0 || idx >= len(s.Classes) {
		return "", errors.Errorf("index %d out of range for set %q", idx, s.Name)
	}
	return s.Classes[idx].Name, nil
}

// Index returns the class id for name.
func (s *Set) Index(name string) (int, error) {
	idx, ok := s.nameToIdx[name]
	if !ok {
		return -1, errors.Errorf("name %q not found in set %q", name, s.Name)
	}
	return idx, nil
}

// VOC is the Pascal VOC 2012 semantic segmentation label set.
var VOC = NewSet(SetVOC,
	"background", "aeroplane", "bicycle", "bird", "boat", "bottle", "bus",
	"car", "cat", "chair", "cow", "diningtable", "dog", "horse", "motorbike",
	"person", "pottedplant", "sheep", "sofa", "train", "tvmonitor",
)

// CamVid is the CamVid label set; unlabeled pixels are -1 in label maps.
var CamVid = NewSet(SetCamVid,
	"Sky", "Building", "Pole", "Road", "Pavement", "Tree", "SignSymbol",
	"Fence", "Car", "Pedestrian", "Bicyclist",
)

var registry = map[SetName]*Set{
	SetVOC:    VOC,
	SetCamVid: CamVid,
}

// Lookup returns the registered set called name.
func Lookup(name SetName) (*Set, error) {
	s, ok := registry[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSet, "%q", name)
	}
	return s, nil
}
