// Package notification fans a message out to every device of a group's
// members. Delivery is best-effort and at-most-once: there is no retry and
// no failure is allowed to block the remaining sends.
package notification

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/cartshare/cartshare/internal/group"
)

// GroupDirectory resolves a group's member IDs.
type GroupDirectory interface {
	Members(ctx context.Context, groupID string) ([]string, error)
}

// TokenDirectory resolves push tokens for a set of users.
type TokenDirectory interface {
	TokensByUsers(ctx context.Context, userIDs []string) ([]string, error)
}

// PreferenceDirectory reports whether a user has opted into push
// notifications.
type PreferenceDirectory interface {
	NotificationsEnabled(ctx context.Context, userID string) (bool, error)
}

// Sender delivers a single push message to a single token.
type Sender interface {
	Send(ctx context.Context, token, title, body string) error
}

// Service provides the notification fan-out.
type Service struct {
	groups  GroupDirectory
	devices TokenDirectory
	prefs   PreferenceDirectory
	sender  Sender
	logger  zerolog.Logger
}

// NewService creates a new notification service.
func NewService(groups GroupDirectory, devices TokenDirectory, prefs PreferenceDirectory, sender Sender, logger zerolog.Logger) *Service {
	return &Service{
		groups:  groups,
		devices: devices,
		prefs:   prefs,
		sender:  sender,
		logger:  logger,
	}
}

// NotifyGroup sends one push per registered token across the group's
// members, skipping members who have turned notifications off. A missing
// group or an empty member set is a no-op, not an error.
func (s *Service) NotifyGroup(ctx context.Context, groupID, title, body string) error {
	members, err := s.groups.Members(ctx, groupID)
	if err != nil {
		if errors.Is(err, group.ErrGroupNotFound) {
			s.logger.Warn().
				Str("group_id", groupID).
				Msg("skipping notification for missing group")
			return nil
		}
		return err
	}
	if len(members) == 0 {
		s.logger.Debug().
			Str("group_id", groupID).
			Msg("group has no members, nothing to notify")
		return nil
	}

	recipients := make([]string, 0, len(members))
	for _, userID := range members {
		enabled, err := s.prefs.NotificationsEnabled(ctx, userID)
		if err != nil {
			// On a lookup failure, deliver anyway rather than silently
			// dropping the member.
			s.logger.Warn().
				Err(err).
				Str("user_id", userID).
				Msg("preference lookup failed, delivering anyway")
			enabled = true
		}
		if enabled {
			recipients = append(recipients, userID)
		}
	}
	if len(recipients) == 0 {
		s.logger.Debug().
			Str("group_id", groupID).
			Msg("all members have notifications disabled")
		return nil
	}

	tokens, err := s.devices.TokensByUsers(ctx, recipients)
	if err != nil {
		return err
	}

	sent := 0
	for _, token := range tokens {
		if err := s.sender.Send(ctx, token, title, body); err != nil {
			s.logger.Warn().
				Err(err).
				Str("group_id", groupID).
				Msg("push send failed")
			continue
		}
		sent++
	}

	s.logger.Info().
		Str("group_id", groupID).
		Int("members", len(members)).
		Int("recipients", len(recipients)).
		Int("tokens", len(tokens)).
		Int("sent", sent).
		Msg("notification fan-out completed")

	return nil
}
