package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoginURLTargetsAdminSignIn(t *testing.T) {
	assert.Equal(t, "https://techpathai.learnyst.com/admin/sign_in",
		loginURL("https://techpathai.learnyst.com"))
}

func TestLoginFormSelectorsMatchAdminForm(t *testing.T) {
	// The sign-in form is rendered by the admin Rails app; its field names
	// are admin-scoped and the submit control is an input, not a button.
	assert.Equal(t, `input[name="admin[email]"]`, selLoginEmail)
	assert.Equal(t, `input[name="admin[password]"]`, selLoginPassword)
	assert.Equal(t, `input[name="commit"]`, selLoginSubmit)
	assert.Equal(t, `.side-nav`, selDashboardLandmark)
}

func TestQueryOptionRouting(t *testing.T) {
	cases := []struct {
		selector string
		xpath    bool
	}{
		{`//select[@name="product_id"]`, true},
		{`(//button)[2]`, true},
		{`input[name="commit"]`, false},
		{`.side-nav a[href="/admin/learners"]`, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.xpath, isXPath(tc.selector), tc.selector)
	}
}
