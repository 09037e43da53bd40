package automation

import (
	"context"
	"fmt"

	"github.com/techpathai/learnyst-automator/api/schemas"
)

// enrollUser creates a learner account and gives it course access. When the
// email already has an account, enrollment degrades to the plain grant flow
// against that account.
func (e *Executor) enrollUser(ctx context.Context, drv schemas.Driver, action schemas.Action) (string, error) {
	preamble := append(e.openLearners(drv), e.searchLearner(drv, action.Email)...)
	if err := e.runSteps(ctx, drv, preamble); err != nil {
		return "", err
	}

	exists, err := e.learnerExists(ctx, drv, action.Email)
	if err != nil {
		return "", err
	}

	if exists {
		steps := []step{{
			name: "open learner record",
			run:  func(ctx context.Context) error { return drv.Click(ctx, selLearnerRow(action.Email)) },
		}}
		steps = append(steps, e.grantCourse(drv, action)...)
		if err := e.runSteps(ctx, drv, steps); err != nil {
			return "", err
		}
		return fmt.Sprintf("Successfully gave access to %s for existing user %s", action.CourseName, action.Email), nil
	}

	if err := e.runSteps(ctx, drv, e.createLearner(drv, action)); err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully enrolled %s (%s) to %s", action.FullName, action.Email, action.CourseName), nil
}

// learnerExists probes the search results for a row matching the email.
func (e *Executor) learnerExists(ctx context.Context, drv schemas.Driver, email string) (bool, error) {
	var exists bool
	err := e.runSteps(ctx, drv, []step{{
		name: "check learner existence",
		run: func(ctx context.Context) error {
			visible, err := drv.IsVisible(ctx, selLearnerRow(email), e.cfg.Target.ProbeTimeout)
			if err != nil {
				return err
			}
			exists = visible
			return nil
		},
	}})
	return exists, err
}

// createLearner drives the "+Add" learner form, which creates the account
// and assigns the selected course in one flow.
func (e *Executor) createLearner(drv schemas.Driver, action schemas.Action) []step {
	return []step{
		{
			name: "open add learner form",
			run: func(ctx context.Context) error {
				if err := drv.Click(ctx, selAddLearnerButton); err != nil {
					return err
				}
				return drv.WaitVisible(ctx, selNewEmailInput)
			},
		},
		{
			name: "fill learner details",
			run: func(ctx context.Context) error {
				if err := drv.Fill(ctx, selNewEmailInput, action.Email); err != nil {
					return err
				}
				return drv.Fill(ctx, selNewNameInput, action.FullName)
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
			name: "submit new learner",
			run:  func(ctx context.Context) error { return drv.Click(ctx, selAddLearnerSubmit) },
		},
		{
			// The console flashes a success alert once the account exists;
			// its absence means the form was rejected (duplicate email, bad
			// name) without throwing.
			name: "confirm enrollment",
			run: func(ctx context.Context) error {
				visible, err := drv.IsVisible(ctx, selEnrollSuccess, e.cfg.Target.ProbeTimeout)
				if err != nil {
					return err
				}
				if !visible {
					return preconditionf("Failed to enroll user %s. Please check the email and name and try again.", action.Email)
				}
				return nil
			},
		},
	}
}
