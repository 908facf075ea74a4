package catalog

import (
	"github.com/pwm-project/pwm-admin/internal/admin/settings"
)

// Default returns the catalog matching the configuration slice exposed by
// the bundled static settings service.
func Default() *Catalog {
	c, err := New([]Descriptor{
		{
			Key:      "ldap.serverUrls",
			Syntax:   settings.SyntaxStringArray,
			Label:    "LDAP Server URLs",
			Category: "LDAP",
			Help:     "URLs of the LDAP directory servers, in failover order. Use the `ldaps://` scheme for TLS connections.",
		},
		{
			Key:      "ldap.proxy.username",
			Syntax:   settings.SyntaxString,
			Label:    "LDAP Proxy User DN",
			Category: "LDAP",
			Help:     "Distinguished name of the proxy account used for directory operations performed on behalf of users.",
		},
		{
			Key:           "ldap.naming.attribute",
			Syntax:        settings.SyntaxString,
			Label:         "LDAP Naming Attribute",
			Category:      "LDAP",
			Help:          "Attribute that uniquely names user entries, typically `cn` or `uid`.",
			ProfileScoped: true,
		},
		{
			Key:      "ldap.profile.list",
			Syntax:   settings.SyntaxProfile,
			Label:    "LDAP Profiles",
			Category: "LDAP",
			Help:     "Ordered list of LDAP profile identifiers. The **first** matching profile applies.",
		},
		{
			Key:           "password.policy.minimumLength",
			Syntax:        settings.SyntaxNumeric,
			Label:         "Minimum Password Length",
			Category:      "Password Policy",
			Help:          "Minimum number of characters required in new passwords.",
			ProfileScoped: true,
		},
		{
			Key:           "password.policy.maximumLength",
			Syntax:        settings.SyntaxNumeric,
			Label:         "Maximum Password Length",
			Category:      "Password Policy",
			Help:          "Maximum number of characters permitted in new passwords.",
			ProfileScoped: true,
		},
		{
			Key:           "password.policy.caseSensitive",
			Syntax:        settings.SyntaxBoolean,
			Label:         "Case Sensitive Passwords",
			Category:      "Password Policy",
			Help:          "Whether password comparisons are case sensitive.",
			ProfileScoped: true,
		},
		{
			Key:      "password.changePassword.enable",
			Syntax:   settings.SyntaxBoolean,
			Label:    "Enable Change Password",
			Category: "Password Policy",
			Help:     "Enables the self-service change password page.",
		},
		{
			Key:      "email.domains.permitted",
			Syntax:   settings.SyntaxDomainList,
			Label:    "Permitted Email Domains",
			Category: "Email",
			Help:     "Domains users may register email addresses under. Leave empty to permit all domains.",
		},
		{
			Key:      "email.changePassword",
			Syntax:   settings.SyntaxEmailLocaleMap,
			Label:    "Change Password Email",
			Category: "Email",
			Help:     "Notification sent after a password change, per locale. The default locale entry is used when no translation matches.",
		},
		{
			Key:      "challenge.enable",
			Syntax:   settings.SyntaxBoolean,
			Label:    "Enable Challenge Responses",
			Category: "Challenges",
			Help:     "Enables challenge/response based password recovery.",
		},
		{
			Key:           "challenge.minRandomRequired",
			Syntax:        settings.SyntaxNumeric,
			Label:         "Minimum Random Challenges",
			Category:      "Challenges",
			Help:          "Number of random challenges a user must answer during recovery.",
			ProfileScoped: true,
		},
		{
			Key:      "challenge.challenges",
			Syntax:   settings.SyntaxChallengeLocaleMap,
			Label:    "Challenge Questions",
			Category: "Challenges",
			Help:     "Administrator-defined challenge questions, per locale.",
		},
		{
			Key:      "security.helpdesk.actors",
			Syntax:   settings.SyntaxUserPermissionList,
			Label:    "Helpdesk Operators",
			Category: "Security",
			Help:     "Directory users permitted to use the helpdesk module, matched by LDAP group or query.",
		},
	})
	if err != nil {
		panic(err)
	}
	return c
}
