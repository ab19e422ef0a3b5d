package checker

// Upstream contract: marker strings, CSS selectors and page scripts for the
// booking flow. The booking site ships no stable API — everything below is a
// fragile, versioned contract that can change without notice, so it all
// lives in this one file.
const (
	// calendarEndpointMarker identifies network responses that carry
	// calendar/appointment data for the selected location.
	calendarEndpointMarker = "/appointment/calendar"

	// calendarDataMarker is emitted by the server only when it renders a
	// calendar with an actual date model server-side. The datepicker widget
	// shell ("appointment-datepicker" markup) renders even with zero open
	// slots, so the shell is NOT usable as positive evidence.
	calendarDataMarker = "appointmentCalendar.setAvailableDays("

	// noAppointmentsPhrase is the exact text the server puts inside a
	// validation-error span when no appointments exist in the near term.
	noAppointmentsPhrase = "no appointments available in the near future"

	// errorSpanSelector matches the validation-error span that carries the
	// phrase above.
	errorSpanSelector = `span[class*="field-validation-error"]`
)

// Page selectors.
const (
	appointmentTypeSelect   = `select#appointmentType`
	locationListSelector    = `ul.location-list li.location-entry`
	locationNameSelector    = `.location-name`
	dateTimeHeadingSelector = `h2.step-heading`
	hiddenUnavailableMarker = `input[type="hidden"]#noAppointments`
	firstAvailableDay       = `td.day-available a`
	slotDropdownSelector    = `select#appointmentTime option`
	slotToggleSelector      = `ul.time-toggle-list li label`
)

// dateTimeHeadingText only appears once the date/time selection step has
// rendered; used by the secondary heuristic when no response was captured.
const dateTimeHeadingText = "Select a date and time"

// listLocationsJS returns [{index, name}] for every entry in the current
// render of the location list. Names are best-effort; missing ones come
// back empty and the caller substitutes "Unknown".
const listLocationsJS = `
	(function() {
		var out = [];
		var items = document.querySelectorAll('` + locationListSelector + `');
		for (var i = 0; i < items.length; i++) {
			var nameEl = items[i].querySelector('` + locationNameSelector + `');
			out.push({
				index: i,
				name: nameEl ? nameEl.textContent.trim() : ''
			});
		}
		return out;
	})()
`

// probeFallbackJS inspects the rendered page when no network response was
// captured: positive heading, negative error element, hidden marker.
const probeFallbackJS = `
	(function() {
		var heading = false;
		var headings = document.querySelectorAll('` + dateTimeHeadingSelector + `');
		for (var i = 0; i < headings.length; i++) {
			if ((headings[i].textContent || '').indexOf('` + dateTimeHeadingText + `') !== -1) {
				heading = true;
				break;
			}
		}
		var errEl = document.querySelector('` + errorSpanSelector + `');
		var hasError = !!(errEl && errEl.textContent.toLowerCase().indexOf('` + noAppointmentsPhrase + `') !== -1);
		var hiddenMarker = !!document.querySelector('` + hiddenUnavailableMarker + `');
		return { heading: heading, error: hasError, hidden: hiddenMarker };
	})()
`

// enumerateSlotsJS reads time slots from whichever of the two presentation
// shapes the page rendered: a dropdown of options, or a toggle list.
const enumerateSlotsJS = `
	(function() {
		var dropdown = [];
		var opts = document.querySelectorAll('` + slotDropdownSelector + `');
		for (var i = 0; i < opts.length; i++) {
			var o = opts[i];
			if (!o.value) continue;
			dropdown.push({
				label:     o.value,
				display:   o.textContent.trim(),
				serviceId: o.getAttribute('data-service-id') || '',
				typeId:    o.getAttribute('data-appointment-type-id') || ''
			});
		}
		var toggle = [];
		var labels = document.querySelectorAll('` + slotToggleSelector + `');
		for (var j = 0; j < labels.length; j++) {
			var l = labels[j];
			toggle.push({
				label:     l.getAttribute('data-datetime') || l.textContent.trim(),
				display:   l.textContent.trim(),
				serviceId: l.getAttribute('data-service-id') || '',
				typeId:    l.getAttribute('data-appointment-type-id') || ''
			});
		}
		return { dropdown: dropdown, toggle: toggle };
	})()
`
