package checker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"appointment-checker/config"
	"appointment-checker/models"
	"appointment-checker/utils"
)

// Checker drives the booking flow for one session: appointment-type
// selection, location discovery, and the per-location check cycle.
type Checker struct {
	session *Session
	cfg     *config.Config
	logger  *utils.Logger
	retry   *utils.RetryConfig
}

// New creates a Checker bound to an exclusive browser session.
func New(session *Session, cfg *config.Config, logger *utils.Logger) *Checker {
	return &Checker{
		session: session,
		cfg:     cfg,
		logger:  logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Start navigates to the booking flow, grants geolocation, selects the
// configured appointment type and waits for the location list to render.
func (c *Checker) Start() error {
	if err := c.session.GrantGeolocation(); err != nil {
		return fmt.Errorf("grant geolocation: %w", err)
	}

	err := c.retry.Do(c.session.Context(), "open-booking-flow", func() error {
		if err := c.session.Navigate(c.cfg.TargetURL); err != nil {
			return err
		}
		return c.session.WaitVisible(appointmentTypeSelect, 15*time.Second)
	})
	if err != nil {
		return err
	}

	if err := c.selectAppointmentType(); err != nil {
		return fmt.Errorf("select appointment type: %w", err)
	}

	return c.session.WaitVisible(locationListSelector, 15*time.Second)
}

// selectAppointmentType picks the option by id or by matched text, whichever
// the config carries, and fires a change event so the flow advances.
func (c *Checker) selectAppointmentType() error {
	js := fmt.Sprintf(`
		(function() {
			var sel = document.querySelector(%q);
			if (!sel) return false;
			var byId = %q;
			var byText = %q;
			for (var i = 0; i < sel.options.length; i++) {
				var opt = sel.options[i];
				var hit = byId !== '' ? opt.value === byId
					: opt.textContent.toLowerCase().indexOf(byText.toLowerCase()) !== -1;
				if (hit) {
					sel.selectedIndex = i;
					sel.dispatchEvent(new Event('change', { bubbles: true }));
					return true;
				}
			}
			return false;
		})()
	`, appointmentTypeSelect, c.cfg.AppointmentTypeID, c.cfg.AppointmentTypeText)

	var matched bool
	if err := c.session.Evaluate(js, &matched); err != nil {
		return err
	}
	if !matched {
		return fmt.Errorf("no option matched id=%q text=%q",
			c.cfg.AppointmentTypeID, c.cfg.AppointmentTypeText)
	}
	return nil
}

// DiscoverLocations reads the location list from the current render. The
// returned indices are only valid until the listing reloads.
func (c *Checker) DiscoverLocations() ([]models.Location, error) {
	type entry struct {
		Index int    `json:"index"`
		Name  string `json:"name"`
	}

	var entries []entry
	if err := c.session.Evaluate(listLocationsJS, &entries); err != nil {
		return nil, err
	}

	locations := make([]models.Location, 0, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			name = "Unknown"
		}
		locations = append(locations, models.Location{Index: e.Index, DisplayName: name})
	}
	return locations, nil
}

// Check runs the full cycle for one location: select it, await and classify
// the calendar response, optionally drill into dates/times, screenshot,
// record, and return to the list. Enrichment failures are logged and
// swallowed; only a lost session propagates.
func (c *Checker) Check(loc models.Location) (*models.LocationResult, error) {
	c.logger.Info("[checker] %s — selecting", loc.DisplayName)

	resp, err := c.session.CaptureResponse(
		time.Duration(c.cfg.ResponseTimeoutMs)*time.Millisecond,
		func() error {
			return c.session.ClickNth(locationListSelector, loc.Index)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", loc.DisplayName, err)
	}

	var signal *models.AppointmentSignal
	if resp != nil {
		c.dumpResponse(loc, resp)
		signal = Classify(resp.Body)
		c.logger.Debug("[checker] %s — classified from %s (status %d): available=%t",
			loc.DisplayName, resp.URL, resp.StatusCode, signal.Available)
	} else {
		c.logger.Warn("[checker] %s — no calendar response within window, probing page", loc.DisplayName)
		signal, err = c.fallbackSignal()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", loc.DisplayName, err)
		}
	}

	result := &models.LocationResult{
		CityName:       loc.DisplayName,
		IsAvailable:    signal.Available,
		AvailableDates: signal.AvailableDates,
		CheckedAt:      time.Now(),
	}
	if signal.ErrorMessage != "" {
		c.logger.Info("[checker] %s — %s", loc.DisplayName, signal.ErrorMessage)
	}

	if result.IsAvailable {
		// Best-effort enrichment only; the availability verdict stands
		// regardless of what happens in here.
		if slots, err := c.drillIntoDates(); err != nil {
			c.logger.Warn("[checker] %s — slot drill-in failed: %v", loc.DisplayName, err)
		} else if slots != nil {
			result.TimeSlots = slots.Slots
			c.logger.Info("[checker] %s — sampled %d %s slots",
				loc.DisplayName, len(slots.Slots), slots.Shape)
		}
	}

	if err := c.captureScreenshot(loc); err != nil {
		c.logger.Warn("[checker] %s — screenshot failed: %v", loc.DisplayName, err)
	}

	if err := c.returnToList(); err != nil {
		return nil, fmt.Errorf("%s: return to list: %w", loc.DisplayName, err)
	}

	return result, nil
}

// fallbackSignal is the secondary heuristic used when no calendar response
// was captured: probe the rendered page for the date/time heading, the
// error element, and the hidden no-appointments marker.
func (c *Checker) fallbackSignal() (*models.AppointmentSignal, error) {
	var probe struct {
		Heading bool `json:"heading"`
		Error   bool `json:"error"`
		Hidden  bool `json:"hidden"`
	}
	if err := c.session.Evaluate(probeFallbackJS, &probe); err != nil {
		return nil, err
	}
	return &models.AppointmentSignal{
		Available: resolveFallback(probe.Heading, probe.Error, probe.Hidden),
	}, nil
}

// resolveFallback decides availability from the page probes, in order:
// positive heading, negative error element, hidden marker. When all three
// are inconclusive it deliberately defaults to available — the policy trades
// false positives for fewer false negatives, so an undetected calendar is
// surfaced for a human to verify rather than silently skipped.
func resolveFallback(hasHeading, hasError, hasHiddenMarker bool) bool {
	switch {
	case hasHeading:
		return true
	case hasError:
		return false
	case hasHiddenMarker:
		return false
	default:
		return true
	}
}

// drillIntoDates opens the first available day and samples time slots from
// whichever presentation shape the page rendered.
func (c *Checker) drillIntoDates() (*models.SlotList, error) {
	if err := c.session.WaitVisible(firstAvailableDay, 5*time.Second); err != nil {
		return nil, fmt.Errorf("no selectable day rendered: %w", err)
	}
	if err := c.session.Click(firstAvailableDay); err != nil {
		return nil, err
	}

	type slotEntry struct {
		Label     string `json:"label"`
		Display   string `json:"display"`
		ServiceID string `json:"serviceId"`
		TypeID    string `json:"typeId"`
	}
	var shapes struct {
		Dropdown []slotEntry `json:"dropdown"`
		Toggle   []slotEntry `json:"toggle"`
	}
	if err := c.session.Evaluate(enumerateSlotsJS, &shapes); err != nil {
		return nil, err
	}

	list := &models.SlotList{Shape: models.DropdownSlots}
	entries := shapes.Dropdown
	if len(entries) == 0 {
		list.Shape = models.ToggleSlots
		entries = shapes.Toggle
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no slots in either presentation shape")
	}

	if len(entries) > c.cfg.MaxSlotSample {
		entries = entries[:c.cfg.MaxSlotSample]
	}
	for _, e := range entries {
		list.Slots = append(list.Slots, models.TimeSlot{
			DatetimeLabel:     e.Label,
			DisplayValue:      e.Display,
			ServiceID:         e.ServiceID,
			AppointmentTypeID: e.TypeID,
		})
	}
	return list, nil
}

// returnToList navigates back and re-establishes that the listing rendered,
// so the next location starts from a clean list state.
func (c *Checker) returnToList() error {
	return c.retry.Do(c.session.Context(), "return-to-list", func() error {
		if err := c.session.GoBack(); err != nil {
			return err
		}
		return c.session.WaitVisible(locationListSelector, 10*time.Second)
	})
}

func (c *Checker) captureScreenshot(loc models.Location) error {
	name := utils.SanitizeFileName(loc.DisplayName)
	path := filepath.Join(c.cfg.ScreenshotDir, name+".png")
	return c.session.Screenshot(path)
}

// dumpResponse writes the raw captured body next to the screenshots when
// diagnostics dumps are enabled.
func (c *Checker) dumpResponse(loc models.Location, resp *models.CapturedResponse) {
	if !c.cfg.DumpResponses {
		return
	}
	name := utils.SanitizeFileName(loc.DisplayName)
	path := filepath.Join(c.cfg.ScreenshotDir, name+"_response.txt")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
		if err := os.WriteFile(path, []byte(resp.Body), 0o644); err != nil {
			c.logger.Warn("[checker] %s — response dump failed: %v", loc.DisplayName, err)
		}
	}
}
