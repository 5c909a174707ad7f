package models

import (
	"encoding/json"
	"fmt"
)

// NoImportsObservation is recorded when a run finds no import statements.
const NoImportsObservation = "No external libraries or imports were detected in the source code."

// UnknownLanguage is reported when no file could be classified.
const UnknownLanguage = "unknown"

// SnapshotRecord is the top-level artifact written for one project.
type SnapshotRecord struct {
	ProjectName         string        `json:"project_name"`
	ProgrammingLanguage string        `json:"programming_language"`
	Tree                *TreeNode     `json:"project_tree_structure"`
	Sources             []SourceEntry `json:"project_sources"`
	ExternalLibraries   []ImportCount `json:"external_libraries"`
	Observations        []string      `json:"observations"`
}

// SourceEntry wraps a FileRecord under the "file" key.
type SourceEntry struct {
	File FileRecord `json:"file"`
}

// FileRecord holds the metadata and content of one qualifying file.
type FileRecord struct {
	Name         string `json:"File"`
	FullPath     string `json:"Full Path"`
	RelativePath string `json:"Relative Path"`
	Size         int64  `json:"Size"`
	LastModified string `json:"Last Modified"`
	Lines        int    `json:"Lines"`
	SourceCode   string `json:"Source_Code"`
}

// ImportCount is one finalized tally entry.
type ImportCount struct {
	Name  string `json:"import_name"`
	Count int    `json:"count"`
}

// TreeNode is either a directory (Name plus Children) or a file leaf.
type TreeNode struct {
	Name     string
	IsDir    bool
	Children []*TreeNode
}

// NewDirNode returns an empty directory node.
func NewDirNode(name string) *TreeNode {
	return &TreeNode{Name: name, IsDir: true, Children: []*TreeNode{}}
}

// NewFileNode returns a file leaf.
func NewFileNode(name string) *TreeNode {
	return &TreeNode{Name: name}
}

type dirNodeJSON struct {
	DirectoryName string      `json:"directory_name"`
	Children      []*TreeNode `json:"children"`
}

type fileNodeJSON struct {
	FileName string `json:"file_name"`
}

type anyNodeJSON struct {
	DirectoryName *string     `json:"directory_name"`
	FileName      *string     `json:"file_name"`
	Children      []*TreeNode `json:"children"`
}

// MarshalJSON encodes directories as {"directory_name", "children"} and files
// as {"file_name"}.
func (n *TreeNode) MarshalJSON() ([]byte, error) {
	if n.IsDir {
		children := n.Children
		if children == nil {
			children = []*TreeNode{}
		}
		return json.Marshal(dirNodeJSON{DirectoryName: n.Name, Children: children})
	}
	return json.Marshal(fileNodeJSON{FileName: n.Name})
}

// UnmarshalJSON accepts both node shapes.
func (n *TreeNode) UnmarshalJSON(data []byte) error {
	var raw anyNodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.DirectoryName != nil:
		n.Name = *raw.DirectoryName
		n.IsDir = true
		n.Children = raw.Children
		if n.Children == nil {
			n.Children = []*TreeNode{}
		}
	case raw.FileName != nil:
		n.Name = *raw.FileName
		n.IsDir = false
		n.Children = nil
	default:
		return fmt.Errorf("tree node has neither directory_name nor file_name")
	}
	return nil
}

// CountFiles returns the number of file leaves below n.
func (n *TreeNode) CountFiles() int {
	if n == nil {
		return 0
	}
	if !n.IsDir {
		return 1
	}
	total := 0
	for _, child := range n.Children {
		total += child.CountFiles()
	}
	return total
}
