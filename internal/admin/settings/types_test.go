package settings_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pwm-project/pwm-admin/internal/admin/settings"
)

func TestRecordDecodeDispatchesOnSyntax(t *testing.T) {
	t.Parallel()

	payload := `{
		"key": "challenge.challenges",
		"syntax": "CHALLENGE_LOCALE_MAP",
		"value": {
			"": [{"text": "First car?", "adminDefined": true, "minLength": 4, "maxLength": 200}],
			"de": [{"text": "Erstes Auto?", "adminDefined": true, "minLength": 4, "maxLength": 200}]
		},
		"modified": true
	}`

	var rec settings.Record
	require.NoError(t, json.Unmarshal([]byte(payload), &rec))
	require.Equal(t, "challenge.challenges", rec.Key)
	require.True(t, rec.Modified)

	m, ok := rec.Value.(settings.ChallengeLocaleMap)
	require.True(t, ok)
	require.Equal(t, "First car?", m[settings.DefaultLocale][0].Text)
	require.Equal(t, "Erstes Auto?", m["de"][0].Text)
}

func TestRecordDecodeNullValueMeansUnset(t *testing.T) {
	t.Parallel()

	var rec settings.Record
	require.NoError(t, json.Unmarshal([]byte(`{"key":"x","syntax":"STRING","value":null,"modified":false}`), &rec))
	require.Nil(t, rec.Value)
	require.Equal(t, settings.SyntaxString, rec.Syntax)
}

func TestRecordDecodeUnknownSyntax(t *testing.T) {
	t.Parallel()

	var rec settings.Record
	err := json.Unmarshal([]byte(`{"key":"x","syntax":"MYSTERY","value":1}`), &rec)
	require.Error(t, err)
}

func TestRecordRoundTrip(t *testing.T) {
	t.Parallel()

	in := settings.Record{
		Key:    "security.helpdesk.actors",
		Syntax: settings.SyntaxUserPermissionList,
		Value: settings.PermissionListValue{
			{Type: settings.PermissionLDAPGroup, LDAPProfile: "default", GroupDN: "cn=helpdesk,ou=groups,dc=example,dc=com"},
			{Type: settings.PermissionLDAPQuery, LDAPQuery: "(objectClass=inetOrgPerson)", LDAPBase: "ou=people,dc=example,dc=com"},
		},
		Modified: true,
	}

	raw, err := json.Marshal(in)
	require.NoError(t, err)

	var out settings.Record
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Equal(t, in, out)
}

func TestValueCloneIsolation(t *testing.T) {
	t.Parallel()

	original := settings.EmailLocaleMap{
		settings.DefaultLocale: {Subject: "original"},
	}
	clone := original.Clone().(settings.EmailLocaleMap)
	clone[settings.DefaultLocale] = settings.EmailTemplate{Subject: "mutated"}
	clone["de"] = settings.EmailTemplate{Subject: "new"}

	require.Equal(t, "original", original[settings.DefaultLocale].Subject)
	require.NotContains(t, original, "de")

	list := settings.StringListValue{"a", "b"}
	listClone := list.Clone().(settings.StringListValue)
	listClone[0] = "z"
	require.Equal(t, "a", list[0])
}
