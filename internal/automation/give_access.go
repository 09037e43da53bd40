package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/techpathai/learnyst-automator/api/schemas"
)

// accessValidityDays is how long granted access stays valid before the
// offline payment expires.
const accessValidityDays = 60

// giveAccess grants an existing learner access to a course: locate the
// learner, open their record, add the course as a product with an offline
// payment, and confirm.
func (e *Executor) giveAccess(ctx context.Context, drv schemas.Driver, action schemas.Action) (string, error) {
	steps := append(e.openLearners(drv), e.searchLearner(drv, action.Email)...)
	steps = append(steps,
		step{
			name: "locate learner",
			run: func(ctx context.Context) error {
				visible, err := drv.IsVisible(ctx, selLearnerRow(action.Email), e.cfg.Target.ProbeTimeout)
				if err != nil {
					return err
				}
				if !visible {
					return preconditionf("User with email %s not found. Please provide full name to enroll them.", action.Email)
				}
				return nil
			},
		},
		step{
			name: "open learner record",
			run:  func(ctx context.Context) error { return drv.Click(ctx, selLearnerRow(action.Email)) },
		},
	)
	steps = append(steps, e.grantCourse(drv, action)...)

	if err := e.runSteps(ctx, drv, steps); err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully gave access to %s for user %s", action.CourseName, action.Email), nil
}

// grantCourse is the add-product flow from an open learner record. It is
// shared by give_access and the existing-account branch of enroll_user.
func (e *Executor) grantCourse(drv schemas.Driver, action schemas.Action) []step {
	return []step{
		{
			name: "check existing access",
			run: func(ctx context.Context) error {
				visible, err := drv.IsVisible(ctx, selCourseEntry(action.CourseName), e.cfg.Target.ProbeTimeout)
				if err != nil {
					return err
				}
				if visible {
					return preconditionf("User %s already has access to %s", action.Email, action.CourseName)
				}
				return nil
			},
		},
		{
			name: "open add product form",
			run: func(ctx context.Context) error {
				if err := drv.Click(ctx, selAddProductButton); err != nil {
					return err
				}
				return drv.WaitVisible(ctx, selProductDropdown)
			},
		},
		{
			name: "select course",
			run: func(ctx context.Context) error {
				if err := drv.SelectByLabel(ctx, selProductDropdown, action.CourseName); err != nil {
					if ctx.Err() != nil {
						return err
					}
					return preconditionf("Course %q was not found in the product catalog", action.CourseName)
				}
				return nil
			},
		},
		{
			name: "select access type",
			run: func(ctx context.Context) error {
				return drv.SelectByLabel(ctx, selTypeDropdown, accessTypeTrial)
			},
		},
		{
			name: "save and continue",
			run:  func(ctx context.Context) error { return drv.Click(ctx, selSaveNextButton) },
		},
		{
			// Single-plan products skip the plan picker entirely.
			name: "select base plan",
			run: func(ctx context.Context) error {
				visible, err := drv.IsVisible(ctx, selBasePlanRadio, e.cfg.Target.ProbeTimeout)
				if err != nil || !visible {
					return err
				}
				return drv.Click(ctx, selBasePlanRadio)
			},
		},
		{
			name: "add offline payment",
			run:  func(ctx context.Context) error { return drv.Click(ctx, selOfflinePayButton) },
		},
		{
			// Access validity is two months from today; the date input is
			// absent on products without expiring access.
			name: "set expiry date",
			run: func(ctx context.Context) error {
				visible, err := drv.IsVisible(ctx, selExpiryDateInput, e.cfg.Target.ProbeTimeout)
				if err != nil || !visible {
					return err
				}
				expiry := time.Now().AddDate(0, 0, accessValidityDays).Format("2006-01-02")
				return drv.Fill(ctx, selExpiryDateInput, expiry)
			},
		},
		{
			name: "save payment",
			run:  func(ctx context.Context) error { return drv.Click(ctx, selSaveButton) },
		},
	}
}
