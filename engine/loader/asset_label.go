package loader

import (
	"fmt"
	"strconv"
	"strings"
)

// LabelKind identifies which sub-asset an asset reference points at.
type LabelKind int

const (
	// LabelNone is a plain file reference.
	LabelNone LabelKind = iota

	// LabelScene selects one of the scenes stored in the file (path#Scene0).
	LabelScene

	// LabelAnimation selects one of the animation clips (path#Animation0).
	LabelAnimation
)

// AssetLabel is a parsed asset reference of the form path[#SceneN|#AnimationN].
type AssetLabel struct {
	Path  string
	Kind  LabelKind
	Index int
}

// ParseAssetLabel splits an asset reference into the file path and an optional
// sub-asset label.
//
// Parameters:
//   - ref: the reference, for example "models/frank.glb#Scene0"
//
// Returns:
//   - AssetLabel: the parsed reference
//   - error: error if the label is not SceneN or AnimationN
func ParseAssetLabel(ref string) (AssetLabel, error) {
	path, label, found := strings.Cut(ref, "#")
	if path == "" {
		return AssetLabel{}, fmt.Errorf("asset reference %q has no path", ref)
	}
	if !found {
		return AssetLabel{Path: path}, nil
	}

	for prefix, kind := range map[string]LabelKind{"Scene": LabelScene, "Animation": LabelAnimation} {
		digits, ok := strings.CutPrefix(label, prefix)
		if !ok {
			continue
		}
		index, err := strconv.Atoi(digits)
		if err != nil || index < 0 {
			return AssetLabel{}, fmt.Errorf("asset reference %q: bad %s index %q", ref, strings.ToLower(prefix), digits)
		}
		return AssetLabel{Path: path, Kind: kind, Index: index}, nil
	}
	return AssetLabel{}, fmt.Errorf("asset reference %q: unknown label %q", ref, label)
}

// String formats the reference back into path#LabelN form.
func (a AssetLabel) String() string {
	switch a.Kind {
	case LabelScene:
		return fmt.Sprintf("%s#Scene%d", a.Path, a.Index)
	case LabelAnimation:
		return fmt.Sprintf("%s#Animation%d", a.Path, a.Index)
	default:
		return a.Path
	}
}
