package waypoint

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedLabel is returned for labels without a "<field> | <qualifier>" shape.
	ErrMalformedLabel = errors.New("malformed column label")
	// ErrUnknownQualifier is returned for labels whose qualifier cannot be grouped.
	ErrUnknownQualifier = errors.New("unknown column qualifier")
	// ErrDuplicateColumn is returned when two labels map to the same output.
	ErrDuplicateColumn = errors.New("duplicate column")
	// ErrShortRow is returned when a row has fewer values than there are labels.
	ErrShortRow = errors.New("row shorter than column labels")
)

// Group identifies one arm in a flat multi-arm recording.
type Group string

const (
	Primary   Group = "left"
	Secondary Group = "right"
)

const secondarySuffix = "_secondary"

// Role is what a labelled column contributes to a waypoint.
type Role int

const (
	RoleMisc Role = iota
	RolePose
	RoleCartesian
	RoleGrip
)

// Field names, matched exactly against the part before the separator with
// any group suffix removed.
var (
	poseFields      = []string{"observation.state", "q", "action"}
	cartesianFields = []string{"observation.ee_pose", "ee_pose"}
)

const gripField = "gripper_open"

// Label is a parsed "<field> | <qualifier>" column label.
type Label struct {
	Raw       string
	Field     string // as written, including any group suffix
	Qualifier string
	Base      string // Field without the group suffix
	Group     Group
	Role      Role
}

// ParseLabel parses and classifies one column label.
func ParseLabel(s string) (Label, error) {
	field, qualifier, ok := strings.Cut(s, "|")
	if !ok {
		return Label{}, fmt.Errorf("%w %q: missing '|' separator", ErrMalformedLabel, s)
	}
	field = strings.TrimSpace(field)
	qualifier = strings.TrimSpace(qualifier)
	if field == "" {
		return Label{}, fmt.Errorf("%w %q: empty field name", ErrMalformedLabel, s)
	}
	if !validQualifier(qualifier) {
		return Label{}, fmt.Errorf("%w %q in label %q", ErrUnknownQualifier, qualifier, s)
	}

	l := Label{
		Raw:       s,
		Field:     field,
		Qualifier: qualifier,
		Base:      field,
		Group:     Primary,
	}
	if base, found := strings.CutSuffix(field, secondarySuffix); found {
		l.Base = base
		l.Group = Secondary
	}
	if strings.HasSuffix(qualifier, secondarySuffix) {
		l.Group = Secondary
	}

	switch {
	case contains(poseFields, l.Base):
		l.Role = RolePose
	case contains(cartesianFields, l.Base):
		l.Role = RoleCartesian
	case l.Base == gripField:
		l.Role = RoleGrip
	default:
		l.Role = RoleMisc
	}
	return l, nil
}

func validQualifier(q string) bool {
	if q == "" {
		return false
	}
	for _, r := range q {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '.', r == '-':
		default:
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// GroupExtractor pulls one arm's values out of a flat row.
type GroupExtractor struct {
	Group Group
	pose  []int
	cart  []int
	grip  int
}

// Empty reports whether no column belongs to this group.
func (g GroupExtractor) Empty() bool {
	return len(g.pose) == 0 && len(g.cart) == 0 && g.grip < 0
}

// Joints returns the group's pose sub-vector.
func (g GroupExtractor) Joints(row []float64) []float64 {
	return pick(row, g.pose)
}

// Cartesian returns the group's cartesian target, nil if it has none.
func (g GroupExtractor) Cartesian(row []float64) []float64 {
	if len(g.cart) == 0 {
		return nil
	}
	return pick(row, g.cart)
}

// Grip returns the group's gripper flag, false without a gripper column.
func (g GroupExtractor) Grip(row []float64) bool {
	return g.grip >= 0 && row[g.grip] > 0.5
}

// Extract returns the group's waypoint for one row.
func (g GroupExtractor) Extract(row []float64) Spec {
	return Spec{Pose: g.Joints(row), Grip: g.Grip(row)}
}

func pick(row []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = row[j]
	}
	return out
}

type miscColumn struct {
	key   string
	index int
}

// Extractors splits flat, column-labelled rows into per-arm waypoints.
type Extractors struct {
	Primary   GroupExtractor
	Secondary GroupExtractor
	Labels    []Label
	misc      []miscColumn
}

// BuildExtractors parses labels and builds one extractor per arm group plus
// a catch-all for gripper and other boolean-like columns. Any malformed
// label fails the whole build.
func BuildExtractors(labels []string) (*Extractors, error) {
	e := &Extractors{
		Primary:   GroupExtractor{Group: Primary, grip: -1},
		Secondary: GroupExtractor{Group: Secondary, grip: -1},
		Labels:    make([]Label, 0, len(labels)),
	}

	seen := make(map[string]bool, len(labels))
	miscKeys := make(map[string]bool)
	for i, raw := range labels {
		l, err := ParseLabel(raw)
		if err != nil {
			return nil, err
		}
		id := l.Field + "|" + l.Qualifier
		if seen[id] {
			return nil, fmt.Errorf("%w: label %q appears twice", ErrDuplicateColumn, raw)
		}
		seen[id] = true
		e.Labels = append(e.Labels, l)

		g := e.group(l.Group)
		switch l.Role {
		case RolePose:
			g.pose = append(g.pose, i)
		case RoleCartesian:
			g.cart = append(g.cart, i)
		case RoleGrip:
			if g.grip >= 0 {
				return nil, fmt.Errorf("%w: second gripper column %q for %s arm", ErrDuplicateColumn, raw, l.Group)
			}
			g.grip = i
		}

		if l.Role == RoleGrip || l.Role == RoleMisc {
			key := miscKey(l)
			if miscKeys[key] {
				return nil, fmt.Errorf("%w: %q maps to %q twice", ErrDuplicateColumn, raw, key)
			}
			miscKeys[key] = true
			e.misc = append(e.misc, miscColumn{key: key, index: i})
		}
	}
	return e, nil
}

func (e *Extractors) group(g Group) *GroupExtractor {
	if g == Secondary {
		return &e.Secondary
	}
	return &e.Primary
}

func miscKey(l Label) string {
	if l.Role == RoleGrip {
		return string(l.Group) + "_grip"
	}
	return string(l.Group) + "_" + strings.ReplaceAll(l.Base, ".", "_")
}

// Width is the number of columns a row must have.
func (e *Extractors) Width() int {
	return len(e.Labels)
}

// Check verifies that a row is wide enough for every label.
func (e *Extractors) Check(row []float64) error {
	if len(row) < len(e.Labels) {
		return fmt.Errorf("%w: %d values for %d labels", ErrShortRow, len(row), len(e.Labels))
	}
	return nil
}

// Misc returns every gripper and miscellaneous column as a boolean.
func (e *Extractors) Misc(row []float64) map[string]bool {
	out := make(map[string]bool, len(e.misc))
	for _, c := range e.misc {
		out[c.key] = row[c.index] > 0.5
	}
	return out
}

// PoseColumns returns the column indices of every pose column, primary arm
// first. These are the columns whose motion drives segmentation.
func (e *Extractors) PoseColumns() []int {
	cols := append([]int{}, e.Primary.pose...)
	return append(cols, e.Secondary.pose...)
}

// ArmsSpec is the waypoint of a possibly two-armed recording.
type ArmsSpec struct {
	Left      Spec
	Right     *Spec // nil for single-arm recordings
	LeftCart  []float64
	RightCart []float64
	Misc      map[string]bool
}

// Summarise extracts the waypoint of every group from one row.
func (e *Extractors) Summarise(row []float64) (ArmsSpec, error) {
	if err := e.Check(row); err != nil {
		return ArmsSpec{}, err
	}
	spec := ArmsSpec{
		Left:     e.Primary.Extract(row),
		LeftCart: e.Primary.Cartesian(row),
		Misc:     e.Misc(row),
	}
	if !e.Secondary.Empty() {
		right := e.Secondary.Extract(row)
		spec.Right = &right
		spec.RightCart = e.Secondary.Cartesian(row)
	}
	return spec, nil
}
