package vesyncStructs

import "fmt"

// ActionId identifies a linkage action advertised by a device family.
type ActionId int

const (
	TogglePower      ActionId = 60000
	Modes            ActionId = 70001
	PrimaryLevelText ActionId = 70002
	SecondaryToggle  ActionId = 70003
	PrimaryLevelNum  ActionId = 70004
	SecondaryLevels  ActionId = 70005
	LevelsText       ActionId = 70008
)

var actionNames = map[ActionId]string{
	TogglePower:      "toggle_power",
	Modes:            "modes",
	PrimaryLevelText: "primary_level_text",
	SecondaryToggle:  "secondary_toggle",
	PrimaryLevelNum:  "primary_level_num",
	SecondaryLevels:  "secondary_levels",
	LevelsText:       "levels_text",
}

func (a ActionId) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action_%d", int(a))
}

// Known reports whether the id is one of the supported linkage actions.
func (a ActionId) Known() bool {
	_, ok := actionNames[a]
	return ok
}

type DeviceSpec struct {
	Type         string `json:"type"`
	Model        string `json:"model"`
	ModelName    string `json:"model_name"`
	ModelDisplay string `json:"model_display"`
}

// Action properties per action id, per configuration module.
type LinkageActionMap map[string]map[ActionId]any
