package store

import (
	"errors"
	"fmt"
)

// Errors the store reports for references that do not resolve. Callers that
// surface them to the user get a store notice as well.
var (
	ErrUnknownModel = errors.New("unknown model")
	ErrBadFaceIndex = errors.New("bad face index")
	ErrNoSelection  = errors.New("nothing selected")
	ErrNotComposite = errors.New("not a composite prototype")
)

// Mode selects the editing surface. Admin exposes everything; User keeps
// arranging (transform, visibility, selection) and hides structure edits. The
// store itself stays permissive in both modes: gating lives in the panels and
// the console so a scripted setup can always repair a scene.
type Mode int

const (
	ModeAdmin Mode = iota
	ModeUser
)

// String returns the config-file spelling of the mode.
func (m Mode) String() string {
	if m == ModeUser {
		return "user"
	}
	return "admin"
}

// ParseMode reads the config-file spelling.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "admin", "":
		return ModeAdmin, nil
	case "user":
		return ModeUser, nil
	}
	return ModeAdmin, fmt.Errorf("mode %q: want admin or user", s)
}

// ModelInstance is one placed model in the scene description. Instances are
// plain data; the live engine object for an instance lives in the
// reconciler's side table, never here, so state can be copied and inspected
// freely.
//
// Rotation is Euler degrees applied X, then Y, then Z. FaceMaterials is
// sparse: only overridden surface slots appear, everything else renders the
// prototype default.
type ModelInstance struct {
	ID          string
	PrototypeID string
	Name        string
	Visible     bool

	Position [3]float32
	Rotation [3]float32
	Scale    [3]float32

	Params        map[string]any
	FaceMaterials map[int]string

	IsComposite bool
	ChildIDs    []string
	IsSubmodel  bool
	ParentID    string

	// Selected is derived from the store's selection when snapshotting; it is
	// never authoritative and the store ignores it on the way in.
	Selected bool

	// ShapeRev moves when Params change and the geometry must be rebuilt.
	// FaceRev moves when FaceMaterials change. The reconciler compares both
	// against what it last realized.
	ShapeRev uint64
	FaceRev  uint64
}

// NoticeLevel grades user-facing notices.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarn
	NoticeError
)

// Notice is a short user-facing message produced by store operations and
// drained by the HUD.
type Notice struct {
	Level NoticeLevel
	Text  string
}

// maxNotices bounds the queue; the oldest entries fall off first.
const maxNotices = 32
