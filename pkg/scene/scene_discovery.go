package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-light-transport/pkg/core"
)

// ErrUnknownScene is returned when a built-in scene name is not registered
var ErrUnknownScene = errors.New("unknown scene")

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "file"
	FilePath    string `json:"filePath"`    // Path to the scene file (file type only)
	Integrator  string `json:"integrator"`  // Preferred integrator
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse lists every known scene, grouped by category
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

const builtInGroup = "Built-in Scenes"

type builtInScene struct {
	info    SceneInfo
	factory func() *Scene
}

var builtInScenes = []builtInScene{
	{
		info: SceneInfo{
			ID:          "cornell",
			Name:        "Cornell Box",
			Description: "Cornell box with a chrome and a glass sphere",
			Integrator:  "path_mis",
		},
		factory: NewCornellScene,
	},
	{
		info: SceneInfo{
			ID:          "cornell-fog",
			Name:        "Cornell Fog",
			Description: "Cornell box filled with a homogeneous scattering medium",
			Integrator:  "vol_path",
		},
		factory: NewCornellFogScene,
	},
	{
		info: SceneInfo{
			ID:          "caustic",
			Name:        "Caustic",
			Description: "Glass sphere focusing the ceiling light onto the floor",
			Integrator:  "photonmapper",
		},
		factory: NewCausticScene,
	},
	{
		info: SceneInfo{
			ID:          "materials",
			Name:        "Materials",
			Description: "One sphere per BSDF family under a sky environment",
			Integrator:  "path_mis",
		},
		factory: NewMaterialsScene,
	},
	{
		info: SceneInfo{
			ID:          "point-plane",
			Name:        "Point Plane",
			Description: "Point light over a diffuse plane",
			Integrator:  "direct_ems",
		},
		factory: func() *Scene {
			return NewPointPlaneScene(core.NewVec3(1000, 1000, 1000), 2, core.NewVec3(0.5, 0.5, 0.5))
		},
	},
}

// ListBuiltInScenes returns the metadata of every built-in scene, in registration order
func ListBuiltInScenes() []SceneInfo {
	scenes := make([]SceneInfo, len(builtInScenes))
	for i, s := range builtInScenes {
		scenes[i] = s.info
		scenes[i].Group = builtInGroup
		scenes[i].Type = "builtin"
	}
	return scenes
}

// NewSceneByName builds a built-in scene from its ID
func NewSceneByName(id string) (*Scene, error) {
	for _, s := range builtInScenes {
		if s.info.ID == id {
			return s.factory(), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScene, id)
}

// ListSceneFiles scans dir for JSON scene descriptions and returns their metadata.
// A missing directory is not an error.
func ListSceneFiles(dir string) ([]SceneInfo, error) {
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []SceneInfo{}, nil
		}
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	scenes := []SceneInfo{}
	for _, filePath := range files {
		sceneInfo, err := ParseSceneMetadata(filePath)
		if err != nil {
			// Skip unreadable files, the rest of the directory is still usable
			continue
		}
		scenes = append(scenes, sceneInfo)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].Name < scenes[j].Name
	})
	return scenes, nil
}

// sceneFileHeader holds the metadata fields of a JSON scene file
type sceneFileHeader struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Group       string `json:"group"`
	Integrator  struct {
		Name string `json:"name"`
	} `json:"integrator"`
}

// ParseSceneMetadata reads the name, description and group of a JSON scene file,
// falling back to the title-cased file name
func ParseSceneMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	sceneInfo := SceneInfo{
		ID:       fmt.Sprintf("file:%s", nameWithoutExt),
		Name:     titleCase(nameWithoutExt),
		Group:    "Scene Files",
		Type:     "file",
		FilePath: filePath,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return sceneInfo, fmt.Errorf("reading %s: %w", filePath, err)
	}

	var header sceneFileHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return sceneInfo, fmt.Errorf("parsing %s: %w", filePath, err)
	}

	if header.Name != "" {
		sceneInfo.Name = header.Name
	}
	if header.Group != "" {
		sceneInfo.Group = header.Group
	}
	sceneInfo.Description = header.Description
	sceneInfo.Integrator = header.Integrator.Name
	return sceneInfo, nil
}

// ListAllScenes returns both built-in scenes and the scene files in dir, grouped by category
func ListAllScenes(dir string) (ScenesResponse, error) {
	var response ScenesResponse

	fileScenes, err := ListSceneFiles(dir)
	if err != nil {
		return response, fmt.Errorf("failed to list scene files: %w", err)
	}

	allScenes := append(ListBuiltInScenes(), fileScenes...)

	// Group scenes by their Group field
	groupMap := make(map[string][]SceneInfo)
	for _, scene := range allScenes {
		groupMap[scene.Group] = append(groupMap[scene.Group], scene)
	}

	// Built-in first, then alphabetical
	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtInGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	if group, exists := groupMap[builtInGroup]; exists {
		response.Groups = append(response.Groups, SceneGroup{Name: builtInGroup, Scenes: group})
	}
	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{Name: groupName, Scenes: groupMap[groupName]})
	}

	return response, nil
}

// titleCase converts a filename-style string to title case
// e.g., "cornell-fog" -> "Cornell Fog"
func titleCase(s string) string {
	// Replace hyphens and underscores with spaces
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}

	return strings.Join(words, " ")
}
