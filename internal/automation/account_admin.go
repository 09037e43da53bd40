package automation

import (
	"context"
	"fmt"

	"github.com/techpathai/learnyst-automator/api/schemas"
)

// suspendUser disables a learner account through the account settings page.
func (e *Executor) suspendUser(ctx context.Context, drv schemas.Driver, action schemas.Action) (string, error) {
	steps := e.accountControl(drv, action.UserIdentifier, "Suspend Learner Account", "Suspend")
	if err := e.runSteps(ctx, drv, steps); err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully suspended user account for %s", action.UserIdentifier), nil
}

// deleteUser removes a learner account through the account settings page.
func (e *Executor) deleteUser(ctx context.Context, drv schemas.Driver, action schemas.Action) (string, error) {
	steps := e.accountControl(drv, action.UserIdentifier, "Delete Learner Account", "Delete")
	if err := e.runSteps(ctx, drv, steps); err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully deleted user account for %s", action.UserIdentifier), nil
}

// accountControl is the shared suspend/delete sequence: locate the account,
// open its settings, switch to the named tab, trigger the control, and
// confirm the dialog both ways (click through it, then wait for it to
// close, which is the success landmark).
func (e *Executor) accountControl(drv schemas.Driver, identifier, tabLabel, buttonLabel string) []step {
	steps := append(e.openLearners(drv), e.searchLearner(drv, identifier)...)
	return append(steps,
		step{
			name: "locate account",
			run: func(ctx context.Context) error {
				visible, err := drv.IsVisible(ctx, selLearnerRow(identifier), e.cfg.Target.ProbeTimeout)
				if err != nil {
					return err
				}
				if !visible {
					return preconditionf("User with identifier %s not found.", identifier)
				}
				return nil
			},
		},
		step{
			name: "open learner record",
			run:  func(ctx context.Context) error { return drv.Click(ctx, selLearnerRow(identifier)) },
		},
		step{
			name: "open account settings",
			run: func(ctx context.Context) error {
				if err := drv.Click(ctx, selMoreButton); err != nil {
					return err
				}
				return drv.Click(ctx, selSettingsLink)
			},
		},
		step{
			name: "open control tab",
			run:  func(ctx context.Context) error { return drv.Click(ctx, selSettingsTab(tabLabel)) },
		},
		step{
			name: "trigger control",
			run:  func(ctx context.Context) error { return drv.Click(ctx, selTextButton(buttonLabel)) },
		},
		step{
			name: "confirm control",
			run:  func(ctx context.Context) error { return drv.Click(ctx, selConfirmButton(buttonLabel)) },
		},
		e.awaitModalClosed(drv),
	)
}
