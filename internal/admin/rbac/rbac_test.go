package rbac

import "testing"

func TestHasCapabilityMatrix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		roles      []string
		capability Capability
		want       bool
	}{
		{
			name:       "admin has defined capability",
			roles:      []string{"admin"},
			capability: CapSettingsEdit,
			want:       true,
		},
		{
			name:       "admin denied for undefined capability",
			roles:      []string{"admin"},
			capability: Capability("made.up"),
			want:       false,
		},
		{
			name:       "configadmin can edit settings",
			roles:      []string{"configadmin"},
			capability: CapSettingsEdit,
			want:       true,
		},
		{
			name:       "auditor can view settings",
			roles:      []string{"auditor"},
			capability: CapSettingsView,
			want:       true,
		},
		{
			name:       "auditor cannot edit settings",
			roles:      []string{"auditor"},
			capability: CapSettingsEdit,
			want:       false,
		},
		{
			name:       "helpdesk cannot view settings",
			roles:      []string{"helpdesk"},
			capability: CapSettingsView,
			want:       false,
		},
		{
			name:       "helpdesk can browse the directory",
			roles:      []string{"helpdesk"},
			capability: CapDirectoryBrowse,
			want:       true,
		},
		{
			name:       "combined roles inherit union of capabilities",
			roles:      []string{"auditor", "helpdesk"},
			capability: CapPasswordChange,
			want:       true,
		},
		{
			name:       "unknown role grants nothing",
			roles:      []string{"unknown"},
			capability: CapSettingsView,
			want:       false,
		},
		{
			name:       "empty capability defaults to visible",
			roles:      []string{"auditor"},
			capability: Capability(""),
			want:       true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := HasCapability(tc.roles, tc.capability); got != tc.want {
				t.Fatalf("HasCapability(%v, %q) = %v, want %v", tc.roles, tc.capability, got, tc.want)
			}
		})
	}
}

func TestCapabilitiesForRoles(t *testing.T) {
	t.Parallel()

	caps := CapabilitiesForRoles([]string{"auditor"})
	if caps[CapSettingsView] != true {
		t.Fatalf("auditor should have CapSettingsView")
	}
	if caps[CapSettingsReset] {
		t.Fatalf("auditor must not have CapSettingsReset")
	}
}

func TestHasAnyRole(t *testing.T) {
	t.Parallel()

	if !HasAnyRole([]string{"helpdesk"}, Roles{RoleHelpdesk}) {
		t.Fatal("helpdesk should satisfy role requirement")
	}
	if HasAnyRole([]string{"auditor"}, Roles{RoleHelpdesk}) {
		t.Fatal("auditor should not satisfy helpdesk-only requirement")
	}
	if !HasAnyRole([]string{"auditor"}, Roles{RoleAuditor, RoleHelpdesk}) {
		t.Fatal("auditor should satisfy auditor-or-helpdesk requirement")
	}
	if !HasAnyRole([]string{"unknown", "admin"}, Roles{RoleConfigAdmin}) {
		t.Fatal("admin should satisfy requirement even when other roles unknown")
	}
}
