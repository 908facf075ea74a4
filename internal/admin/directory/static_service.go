package directory

import (
	"context"
	"fmt"
)

// StaticService serves a small fixed directory tree for development and
// handler tests.
type StaticService struct {
	root     string
	children map[string]*BrowseResult
}

// NewStaticService builds the fixture tree under dc=example,dc=com.
func NewStaticService() *StaticService {
	root := "dc=example,dc=com"
	return &StaticService{
		root: root,
		children: map[string]*BrowseResult{
			root: {
				DN: root,
				Containers: []Node{
					{DN: "ou=people," + root, Label: "people"},
					{DN: "ou=groups," + root, Label: "groups"},
					{DN: "ou=services," + root, Label: "services"},
				},
			},
			"ou=people," + root: {
				DN:     "ou=people," + root,
				Parent: root,
				Entries: []Node{
					{DN: "cn=ada,ou=people," + root, Label: "ada"},
					{DN: "cn=grace,ou=people," + root, Label: "grace"},
				},
			},
			"ou=groups," + root: {
				DN:     "ou=groups," + root,
				Parent: root,
				Entries: []Node{
					{DN: "cn=helpdesk,ou=groups," + root, Label: "helpdesk"},
					{DN: "cn=staff,ou=groups," + root, Label: "staff"},
				},
			},
			"ou=services," + root: {
				DN:     "ou=services," + root,
				Parent: root,
				Entries: []Node{
					{DN: "cn=pwmproxy,ou=services," + root, Label: "pwmproxy"},
				},
			},
		},
	}
}

// Browse returns the fixture content for dn, or the root for an empty dn.
func (s *StaticService) Browse(_ context.Context, _ string, dn string) (*BrowseResult, error) {
	if dn == "" {
		dn = s.root
	}
	result, ok := s.children[dn]
	if !ok {
		return nil, &ServerError{StatusCode: 404, Code: "dn_unknown", Message: fmt.Sprintf("no entry %q", dn)}
	}
	out := *result
	out.Containers = append([]Node(nil), result.Containers...)
	out.Entries = append([]Node(nil), result.Entries...)
	return &out, nil
}
