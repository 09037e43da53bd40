package automation

import "fmt"

// Selectors for the Learnyst admin console learner pages. XPath ("//"
// prefixed) is used wherever the anchor is visible text rather than a
// stable attribute.
const (
	selUsersTab    = `.side-nav a[href="/admin/learners"]`
	selLearnersTab = `.tab-list a[href="/admin/learners"]`

	selSearchInput = `input[placeholder="Search by name or email"]`

	selAddProductButton = `//a[contains(text(), "Add Product")]`
	selProductDropdown  = `//select[@name="product_id"]`
	selTypeDropdown     = `//select[@name="access_type"]`
	selSaveNextButton   = `//button[contains(text(), "Save & Next")]`
	selBasePlanRadio    = `//input[@name="plan_id"]`
	selOfflinePayButton = `//button[contains(text(), "Add Offline")]`
	selExpiryDateInput  = `input[type="date"]`
	selSaveButton       = `//button[contains(text(), "Save")]`

	selAddLearnerButton = `//a[contains(text(), "Add")]`
	selNewEmailInput    = `//input[@name="learner_email"]`
	selNewNameInput     = `//input[@name="learner_name"]`
	selAddLearnerSubmit = `//button[contains(text(), "Add New Learner")]`
	selEnrollSuccess    = `//div[contains(@class, "alert-success")]`

	selMoreButton   = `//button[contains(text(), "More")]`
	selSettingsLink = `//a[contains(text(), "Settings")]`

	selModalDialog = `.modal-dialog`

	// accessTypeTrial is the access type picked when granting a course.
	accessTypeTrial = "Trial"
)

// selLearnerRow matches the results-table row containing the identifier.
func selLearnerRow(identifier string) string {
	return fmt.Sprintf(`//table//tbody//tr[contains(., %q)]`, identifier)
}

// selCourseEntry matches a row of the learner's product list naming the course.
func selCourseEntry(courseName string) string {
	return fmt.Sprintf(`//table//tr[contains(., %q)]`, courseName)
}

// selTextButton matches a button by its visible label.
func selTextButton(label string) string {
	return fmt.Sprintf(`//button[contains(text(), %q)]`, label)
}

// selConfirmButton matches the second, confirming button that follows the
// trigger button with the same label in the suspend/delete dialogs.
func selConfirmButton(label string) string {
	return fmt.Sprintf(`//button[contains(text(), %q)]//following::button[contains(text(), %q)]`, label, label)
}

// selSettingsTab matches a settings tab link by its visible label.
func selSettingsTab(label string) string {
	return fmt.Sprintf(`//a[contains(text(), %q)]`, label)
}
