package builtin

import (
	"errors"

	"eventcore/internal/eventable"
	"eventcore/internal/offline"
)

// UserCreatedEvent fires after a user account is stored.
// Args: user name, then an optional e-mail address.
type UserCreatedEvent struct{ *eventable.Event }

func (UserCreatedEvent) EventName() string { return "UserCreated" }

func (UserCreatedEvent) Wrap(base *eventable.Event) eventable.Envelope {
	return &UserCreatedEvent{Event: base}
}

func (e *UserCreatedEvent) User() string { return argString(e, 0) }

func (e *UserCreatedEvent) Email() string { return argString(e, 1) }

// AuditListener records every new account. It runs before WelcomeListener
// and cancels the event for users without a name.
type AuditListener struct{}

func (AuditListener) EventName() string { return "UserCreated" }

func (AuditListener) Priority() int { return 10 }

func (AuditListener) Handle(ev eventable.Envelope, _ ...any) error {
	user := argString(ev, 0)
	if user == "" {
		zlog.Warn().Str("event", ev.Name()).Msg("audit: user without a name")
		if err := ev.Cancel("user has no name"); err != nil && !errors.Is(err, eventable.ErrNotCancellable) {
			return err
		}
		return nil
	}
	zlog.Info().Str("event", ev.Name()).Str("user", user).Msg("audit: user created")
	printf("audit: user %s created\n", user)
	return nil
}

// WelcomeListener greets the new user.
type WelcomeListener struct{ offline.BaseListener }

func (WelcomeListener) EventName() string { return "UserCreated" }

func (WelcomeListener) Handle(ev eventable.Envelope, _ ...any) error {
	user := argString(ev, 0)
	to := argString(ev, 1)
	if to == "" {
		to = user
	}
	printf("welcome: hello %s (sent to %s)\n", user, to)
	return nil
}
