// Package feed publishes the upcoming offset transitions of a zone as an
// iCalendar document.
package feed

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/go-dstclock/internal/config"
	"github.com/tartampluch/go-dstclock/internal/engine"
	"github.com/tartampluch/go-dstclock/internal/zone"
)

// Options controls one calendar build.
type Options struct {
	Days            int    // look-ahead in days, 1..MaxFeedDays
	ReminderTrigger string // ISO8601 duration (e.g. "-PT1H"); empty disables alarms
}

// Generator turns transitions into calendar events.
type Generator struct {
	Clock engine.Clock

	// FormatSummary and FormatDescription let the caller inject localized text.
	FormatSummary     func(zoneName string, tr engine.Transition) string
	FormatDescription func(zoneName string, tr engine.Transition) string
}

// Build scans z from now over opts.Days and encodes one event per transition.
// A zone without transitions yields a valid empty calendar.
func (g *Generator) Build(ctx context.Context, z zone.Zone, opts Options) ([]byte, []engine.Transition, error) {
	if opts.Days < 1 || opts.Days > config.MaxFeedDays {
		return nil, nil, fmt.Errorf("%s: %d", config.ErrFeedDaysInvalid, opts.Days)
	}

	start := time.Now()
	now := g.Clock.Now()
	transitions := engine.Transitions(z, now, now.AddDate(0, 0, opts.Days))

	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropXWRTimezone, z.Name())
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(now.UTC())

	for _, tr := range transitions {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		event := g.createEvent(z.Name(), tr, opts.ReminderTrigger)
		event.Props.Set(dtStampProp)
		cal.Children = append(cal.Children, event.Component)
	}

	var buf bytes.Buffer
	if len(cal.Children) == 0 {
		buf.WriteString(config.StubVCalendar)
	} else if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}

	slog.Info(config.MsgFeedBuilt,
		config.LogKeyComponent, config.CompFeed,
		config.LogKeyZone, z.Name(),
		config.LogKeyCount, len(transitions),
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), transitions, nil
}

func (g *Generator) createEvent(zoneName string, tr engine.Transition, reminderTrigger string) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(config.PropUID, eventUID(zoneName, tr))

	summary := defaultSummary(zoneName, tr)
	if g.FormatSummary != nil {
		summary = g.FormatSummary(zoneName, tr)
	}
	event.Props.SetText(config.PropSummary, summary)

	description := fmt.Sprintf(config.FallbackFeedDesc, zoneName,
		engine.FormatUTCOffset(tr.FromOffset), engine.FormatUTCOffset(tr.ToOffset))
	if g.FormatDescription != nil {
		description = g.FormatDescription(zoneName, tr)
	}
	event.Props.SetText(config.PropDescription, description)

	dtStartProp := ical.NewProp(config.PropDTStart)
	dtStartProp.SetDateTime(tr.Instant.UTC())
	event.Props.Set(dtStartProp)

	if reminderTrigger != "" {
		addAlarm(event, reminderTrigger, summary)
	}
	return event
}

// eventUID is stable across rebuilds so clients update events in place.
func eventUID(zoneName string, tr engine.Transition) string {
	input := fmt.Sprintf(config.FormatHashInput, zoneName, tr.Instant.UTC().Format(time.RFC3339), config.UIDSalt)
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf(config.FormatUID, fmt.Sprintf("%x", hash[:config.UIDHashLength]), config.ICalDomain)
}

func defaultSummary(zoneName string, tr engine.Transition) string {
	from, to := tr.WallRange()
	if tr.DeltaMinutes < 0 {
		return fmt.Sprintf(config.FallbackFeedBack, zoneName, from, to)
	}
	return fmt.Sprintf(config.FallbackFeedForward, zoneName, from, to)
}

// addAlarm appends a DISPLAY alarm to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, description)

	// Raw value keeps the encoder from adding VALUE=TEXT.
	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}
