package schemas_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techpathai/learnyst-automator/api/schemas"
)

var testCreds = schemas.Credentials{Username: "admin@techpath.ai", Password: "hunter2"}

func TestActionValidate_CompleteActionsPass(t *testing.T) {
	// A structurally complete action of any kind must never be rejected.
	cases := map[string]schemas.Action{
		"give_access": {
			Kind:        schemas.ActionGiveAccess,
			Email:       "student@example.com",
			CourseName:  "Full Stack 1",
			Credentials: testCreds,
		},
		"enroll_user": {
			Kind:        schemas.ActionEnrollUser,
			Email:       "new@example.com",
			FullName:    "New Student",
			CourseName:  "Ownership",
			Credentials: testCreds,
		},
		"suspend_user": {
			Kind:           schemas.ActionSuspendUser,
			UserIdentifier: "student@example.com",
			Credentials:    testCreds,
		},
		"delete_user": {
			Kind:           schemas.ActionDeleteUser,
			UserIdentifier: "uid-4812",
			Credentials:    testCreds,
		},
	}

	for name, action := range cases {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, action.Validate())
		})
	}
}

func TestActionValidate_MissingFields(t *testing.T) {
	cases := []struct {
		name      string
		action    schemas.Action
		wantField string
	}{
		{
			name:      "unknown kind",
			action:    schemas.Action{Kind: "reset_password", Credentials: testCreds},
			wantField: "action",
		},
		{
			name:      "missing credentials",
			action:    schemas.Action{Kind: schemas.ActionDeleteUser, UserIdentifier: "x"},
			wantField: "credentials",
		},
		{
			name:      "give_access without email",
			action:    schemas.Action{Kind: schemas.ActionGiveAccess, CourseName: "Full Stack 1", Credentials: testCreds},
			wantField: "email",
		},
		{
			name:      "give_access without course",
			action:    schemas.Action{Kind: schemas.ActionGiveAccess, Email: "a@b.c", Credentials: testCreds},
			wantField: "course_name",
		},
		{
			name:      "enroll_user without full name",
			action:    schemas.Action{Kind: schemas.ActionEnrollUser, Email: "a@b.c", CourseName: "Meta Interview Advance Concepts", Credentials: testCreds},
			wantField: "full_name",
		},
		{
			name:      "suspend_user without identifier",
			action:    schemas.Action{Kind: schemas.ActionSuspendUser, Credentials: testCreds},
			wantField: "user_identifier",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.action.Validate()
			require.Error(t, err)

			var verr *schemas.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.wantField, verr.Field)
		})
	}
}

func TestCredentialsFingerprint(t *testing.T) {
	a := schemas.Credentials{Username: "admin", Password: "secret"}
	b := schemas.Credentials{Username: "admin", Password: "secret"}
	c := schemas.Credentials{Username: "admin", Password: "changed"}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	// The separator must keep ("ab","c") distinct from ("a","bc").
	assert.NotEqual(t,
		schemas.Credentials{Username: "ab", Password: "c"}.Fingerprint(),
		schemas.Credentials{Username: "a", Password: "bc"}.Fingerprint(),
	)
}

func TestActionTarget(t *testing.T) {
	assert.Equal(t, "a@b.c", schemas.Action{Kind: schemas.ActionGiveAccess, Email: "a@b.c"}.Target())
	assert.Equal(t, "uid-1", schemas.Action{Kind: schemas.ActionSuspendUser, UserIdentifier: "uid-1"}.Target())
}
