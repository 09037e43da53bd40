package browser

// Selectors for the Learnyst admin console login flow. These are the only
// selectors the session layer knows about; action sequences carry their own.
const (
	// loginPath is appended to the configured base URL to reach the admin
	// sign-in form.
	loginPath = "/admin/sign_in"

	// selLoginEmail and selLoginPassword match the admin login form inputs.
	selLoginEmail    = `input[name="admin[email]"]`
	selLoginPassword = `input[name="admin[password]"]`
	selLoginSubmit   = `input[name="commit"]`

	// selDashboardLandmark is present only on authenticated admin pages.
	selDashboardLandmark = `.side-nav`

	// selLoginError appears when the console rejects the credentials.
	selLoginError = `.alert-danger`
)

// loginURL builds the sign-in page address for the configured console.
func loginURL(baseURL string) string {
	return baseURL + loginPath
}
