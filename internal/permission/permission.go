// Package permission implements the Permission Evaluator (spec.md §4.7),
// grounded on
// original_source/gaming_billing_service/currencies_api/services/permissions.py's
// BasePermission hierarchy. The source's dynamically-typed permission dict
// is re-architected here as a single PermissionDoc parser (spec.md's
// Design Notes) that projects the recognised keys out of raw JSON; unknown
// keys are ignored. A min/max value that does not parse as a number leaves
// that range unset, so enforcement reports it with the same "Missing
// required permission" message as an absent key; no separate type-error
// message is produced.
package permission

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/ar1ocker/currencyledger/internal/ledgererr"
)

// Section names recognised by the evaluator (spec.md §4.7).
const (
	SectionAdjustments = "adjustments"
	SectionTransfers   = "transfers"
	SectionExchanges   = "exchanges"
	SectionHolders     = "holders"
	SectionAccounts    = "accounts"
	SectionUnits       = "units"
)

// amountRange holds a strict (min, max) bound parsed from a section.
type amountRange struct {
	set      bool
	min, max decimal.Decimal
}

type subSection struct {
	Enabled  bool
	Services map[string]bool
}

type section struct {
	present          bool
	Enabled          bool
	CreateEnabled    bool
	CreateAmount     amountRange
	CreateAutoReject amountRange
	UpdateEnabled    bool
	Confirm          subSection
	Reject           subSection
}

// Doc is a parsed permission document: the typed projection of a
// CurrencyService's raw JSON permissions field.
type Doc struct {
	root     bool
	sections map[string]section
}

// Parse projects raw into a Doc. Parse never fails: malformed or
// unexpected shapes simply leave the corresponding keys unset, so they
// fail closed later at enforcement time exactly like the source's
// KeyError-catching enforce_* methods.
func Parse(raw json.RawMessage) Doc {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return Doc{sections: map[string]section{}}
	}

	doc := Doc{sections: map[string]section{}}
	if v, ok := generic["root"]; ok {
		var b bool
		if json.Unmarshal(v, &b) == nil {
			doc.root = b
		}
	}

	for _, name := range []string{SectionAdjustments, SectionTransfers, SectionExchanges, SectionHolders, SectionAccounts, SectionUnits} {
		raw, ok := generic[name]
		if !ok {
			continue
		}
		var m map[string]json.RawMessage
		if json.Unmarshal(raw, &m) != nil {
			continue
		}

		sec := section{present: true}
		sec.Enabled = parseBool(m["enabled"])
		sec.UpdateEnabled = parseUpdateEnabled(m["update"])
		sec.CreateEnabled, sec.CreateAmount, sec.CreateAutoReject = parseCreate(m["create"])
		sec.Confirm = parseSubSection(m["confirm"])
		sec.Reject = parseSubSection(m["reject"])
		doc.sections[name] = sec
	}
	return doc
}

func parseBool(raw json.RawMessage) bool {
	if raw == nil {
		return false
	}
	var b bool
	_ = json.Unmarshal(raw, &b)
	return b
}

func parseUpdateEnabled(raw json.RawMessage) bool {
	if raw == nil {
		return false
	}
	var m map[string]json.RawMessage
	if json.Unmarshal(raw, &m) != nil {
		return false
	}
	return parseBool(m["enabled"])
}

func parseCreate(raw json.RawMessage) (bool, amountRange, amountRange) {
	if raw == nil {
		return false, amountRange{}, amountRange{}
	}
	var m map[string]json.RawMessage
	if json.Unmarshal(raw, &m) != nil {
		return false, amountRange{}, amountRange{}
	}
	enabled := parseBool(m["enabled"])
	amount := parseRange(m["min_amount"], m["max_amount"])
	autoReject := parseRange(m["min_auto_reject"], m["max_auto_reject"])
	return enabled, amount, autoReject
}

func parseRange(minRaw, maxRaw json.RawMessage) amountRange {
	if minRaw == nil || maxRaw == nil {
		return amountRange{}
	}
	var minF, maxF decimal.Decimal
	if err := json.Unmarshal(minRaw, &minF); err != nil {
		return amountRange{}
	}
	if err := json.Unmarshal(maxRaw, &maxF); err != nil {
		return amountRange{}
	}
	return amountRange{set: true, min: minF, max: maxF}
}

func parseSubSection(raw json.RawMessage) subSection {
	if raw == nil {
		return subSection{}
	}
	var m map[string]json.RawMessage
	if json.Unmarshal(raw, &m) != nil {
		return subSection{}
	}
	ss := subSection{Enabled: parseBool(m["enabled"])}
	if svcRaw, ok := m["services"]; ok {
		var names []string
		if json.Unmarshal(svcRaw, &names) == nil {
			ss.Services = make(map[string]bool, len(names))
			for _, n := range names {
				ss.Services[n] = true
			}
		}
	}
	return ss
}

func verboseName(sectionName string) string {
	switch sectionName {
	case SectionUnits:
		return "currency units"
	default:
		return sectionName
	}
}

// EnforceAccess requires root or <section>.enabled == true.
func (d Doc) EnforceAccess(sectionName string) error {
	if d.root {
		return nil
	}
	sec, ok := d.sections[sectionName]
	if !ok || !sec.present {
		return ledgererr.Permission("%s: Missing required permission 'enabled'", verboseName(sectionName))
	}
	if !sec.Enabled {
		return ledgererr.Permission("%s: Access is disabled", verboseName(sectionName))
	}
	return nil
}

// EnforceCreate requires EnforceAccess plus <section>.create.enabled.
func (d Doc) EnforceCreate(sectionName string) error {
	if err := d.EnforceAccess(sectionName); err != nil {
		return err
	}
	if d.root {
		return nil
	}
	sec := d.sections[sectionName]
	if !sec.CreateEnabled {
		return ledgererr.Permission("%s: Creating is disabled", verboseName(sectionName))
	}
	return nil
}

// EnforceAmount requires EnforceAccess plus min < amount < max (strict),
// per spec.md §4.7's explicit preservation of the source's strict bound.
func (d Doc) EnforceAmount(sectionName string, amount decimal.Decimal) error {
	if err := d.EnforceAccess(sectionName); err != nil {
		return err
	}
	if d.root {
		return nil
	}
	sec := d.sections[sectionName]
	if !sec.CreateAmount.set {
		return ledgererr.Permission("%s: Missing required permission 'min_amount'", verboseName(sectionName))
	}
	if !(sec.CreateAmount.min.LessThan(amount) && amount.LessThan(sec.CreateAmount.max)) {
		return ledgererr.Permission("%s: Amount is out of range", verboseName(sectionName))
	}
	return nil
}

// EnforceAutoRejectTimeout requires EnforceAccess plus
// min_auto_reject < deltaSeconds < max_auto_reject.
func (d Doc) EnforceAutoRejectTimeout(sectionName string, deltaSeconds decimal.Decimal) error {
	if err := d.EnforceAccess(sectionName); err != nil {
		return err
	}
	if d.root {
		return nil
	}
	sec := d.sections[sectionName]
	if !sec.CreateAutoReject.set {
		return ledgererr.Permission("%s: Missing required permission 'min_auto_reject'", verboseName(sectionName))
	}
	if !(sec.CreateAutoReject.min.LessThan(deltaSeconds) && deltaSeconds.LessThan(sec.CreateAutoReject.max)) {
		return ledgererr.Permission("%s: Auto-reject timeout is out of range", verboseName(sectionName))
	}
	return nil
}

// EnforceConfirm requires EnforceAccess plus confirm.enabled and the caller
// service name listed in confirm.services.
func (d Doc) EnforceConfirm(sectionName, callerService string) error {
	return d.enforceSub(sectionName, callerService, func(s section) subSection { return s.Confirm })
}

// EnforceReject requires EnforceAccess plus reject.enabled and the caller
// service name listed in reject.services.
func (d Doc) EnforceReject(sectionName, callerService string) error {
	return d.enforceSub(sectionName, callerService, func(s section) subSection { return s.Reject })
}

func (d Doc) enforceSub(sectionName, callerService string, pick func(section) subSection) error {
	if err := d.EnforceAccess(sectionName); err != nil {
		return err
	}
	if d.root {
		return nil
	}
	ss := pick(d.sections[sectionName])
	if !ss.Enabled {
		return ledgererr.Permission("%s: Operation is disabled", verboseName(sectionName))
	}
	if !ss.Services[callerService] {
		return ledgererr.Permission("%s: Service %s is not permitted", verboseName(sectionName), callerService)
	}
	return nil
}

// EnforceUpdate requires EnforceAccess plus <section>.update.enabled.
func (d Doc) EnforceUpdate(sectionName string) error {
	if err := d.EnforceAccess(sectionName); err != nil {
		return err
	}
	if d.root {
		return nil
	}
	if !d.sections[sectionName].UpdateEnabled {
		return ledgererr.Permission("%s: Updating is disabled", verboseName(sectionName))
	}
	return nil
}
