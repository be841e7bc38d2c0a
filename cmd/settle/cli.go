package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/diewo77/haulage/i18n"
	"github.com/diewo77/haulage/internal/api"
	"github.com/diewo77/haulage/internal/backend"
	"github.com/diewo77/haulage/internal/config"
	"github.com/diewo77/haulage/internal/services"
	"github.com/diewo77/haulage/internal/settlement"
	"github.com/diewo77/haulage/pdf"
	"github.com/diewo77/haulage/validation"
	"github.com/shopspring/decimal"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type options struct {
	backendURL  string
	lang        string
	driverID    uint
	fleetID     uint
	tripIDs     []uint
	oldKm       decimal.Decimal
	newKm       decimal.Decimal
	rate        decimal.Decimal
	balance     decimal.Decimal
	nextService decimal.Decimal
	save        bool
	editID      string
	pdfPath     string
}

// usageError carries the violations found before any request is sent.
type usageError struct{ v validation.Violations }

func (e usageError) Error() string {
	fields := make([]string, 0, len(e.v))
	for f := range e.v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e.v[f])
	}
	return "invalid arguments: " + strings.Join(parts, ", ")
}

func parseArgs(args []string, defaultURL string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("settle", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		o                                     options
		trips, oldKm, newKm, rate, bal, nextS string
	)
	fs.StringVar(&o.backendURL, "backend", defaultURL, "backend base URL")
	fs.StringVar(&o.lang, "lang", i18n.Default, "statement language (en, hi)")
	fs.UintVar(&o.driverID, "driver", 0, "driver id (self-owned trips)")
	fs.UintVar(&o.fleetID, "fleet-owner", 0, "fleet owner id (fleet trips)")
	fs.StringVar(&trips, "trips", "", "comma separated trip ids")
	fs.StringVar(&oldKm, "old-km", "0", "odometer reading at the start")
	fs.StringVar(&newKm, "new-km", "", "odometer reading at the end")
	fs.StringVar(&rate, "rate", "0", "rate per km")
	fs.StringVar(&bal, "balance", "0", "previous balance carried forward")
	fs.StringVar(&nextS, "next-service", "0", "next service odometer reading")
	fs.BoolVar(&o.save, "save", false, "save the calculation on the backend")
	fs.StringVar(&o.editID, "edit", "", "replace the saved calculation with this id")
	fs.StringVar(&o.pdfPath, "pdf", "", "write the statement PDF to this file")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	v := validation.Violations{}
	switch {
	case o.driverID == 0 && o.fleetID == 0:
		v.Add("driver", "required")
	case o.driverID != 0 && o.fleetID != 0:
		v.Add("fleet-owner", "invalid_value")
	}
	validation.Required("trips", trips, v)
	for _, s := range strings.Split(trips, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil || id == 0 {
			v.Add("trips", "invalid_value")
			continue
		}
		o.tripIDs = append(o.tripIDs, uint(id))
	}
	if trips != "" && len(o.tripIDs) == 0 {
		v.Add("trips", "required")
	}
	validation.UniqueIDs("trips", o.tripIDs, v)
	validation.Required("new-km", newKm, v)
	o.oldKm = parseDecimal("old-km", oldKm, v)
	o.newKm = parseDecimal("new-km", newKm, v)
	o.rate = parseDecimal("rate", rate, v)
	o.balance = parseDecimal("balance", bal, v)
	o.nextService = parseDecimal("next-service", nextS, v)
	validation.NonNegative("old-km", o.oldKm, v)
	if newKm != "" {
		validation.Greater("new-km", o.newKm, o.oldKm, v)
	}
	validation.NonNegative("rate", o.rate, v)
	validation.OneOf("lang", o.lang, []string{i18n.English, i18n.Hindi}, v)
	validation.Required("backend", o.backendURL, v)
	if o.save && o.editID != "" {
		v.Add("edit", "invalid_value")
	}
	if !v.Empty() {
		return options{}, usageError{v}
	}
	return o, nil
}

func parseDecimal(field, s string, v validation.Violations) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		v.Add(field, "invalid_value")
		return decimal.Zero
	}
	return d
}

func (o options) request() api.SettlementRequest {
	req := api.SettlementRequest{
		TripIDs:         o.tripIDs,
		OldKm:           o.oldKm,
		NewKm:           o.newKm,
		PerKmRate:       o.rate,
		PreviousBalance: o.balance,
		NextServiceKm:   o.nextService,
	}
	if o.fleetID != 0 {
		id := o.fleetID
		req.FleetOwnerID = &id
	} else {
		id := o.driverID
		req.DriverID = &id
	}
	return req
}

func (o options) party() services.Party {
	if o.fleetID != 0 {
		return services.Party{Ownership: settlement.OwnershipFleet, ID: o.fleetID}
	}
	return services.Party{Ownership: settlement.OwnershipSelf, ID: o.driverID}
}

func run(ctx context.Context, bc config.BackendConfig, args []string, stdout, stderr io.Writer) int {
	o, err := parseArgs(args, bc.URL, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, err)
		}
		return exitUsage
	}
	timeout := time.Duration(bc.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := backend.New(o.backendURL, backend.WithHTTPClient(&http.Client{Timeout: timeout}))
	if err := settle(ctx, client, o, stdout); err != nil {
		fmt.Fprintln(stderr, "settle:", err)
		return exitFailure
	}
	return exitOK
}

// selectTrips keeps the requested trips in request order.
func selectTrips(all []api.Trip, ids []uint) ([]api.Trip, error) {
	byID := make(map[uint]api.Trip, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}
	out := make([]api.Trip, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("trip %d does not belong to the selected party", id)
		}
		out = append(out, t)
	}
	return out, nil
}

func settle(ctx context.Context, client *backend.Client, o options, stdout io.Writer) error {
	party := o.party()
	var (
		all []api.Trip
		err error
	)
	if party.Ownership == settlement.OwnershipFleet {
		all, err = client.GetTripsForFleetOwner(ctx, party.ID)
	} else {
		all, err = client.GetTripsForDriver(ctx, party.ID)
	}
	if err != nil {
		return fmt.Errorf("fetch trips: %w", err)
	}
	selected, err := selectTrips(all, o.tripIDs)
	if err != nil {
		return err
	}
	trips := api.SettlementTrips(selected)
	result, err := settlement.Compute(trips, o.request().Input())
	if err != nil {
		return err
	}
	if result.Ownership != party.Ownership {
		return fmt.Errorf("%s trips cannot be settled with a %s party", result.Ownership, party.Ownership)
	}
	st := settlement.BuildStatement(trips, result)
	if err := printStatement(stdout, o.lang, st); err != nil {
		return err
	}

	var saved api.Calculation
	if o.save || o.editID != "" {
		svc := services.NewCalculationService(client, nil)
		saved, err = svc.SaveOrUpdate(ctx, services.SaveRequest{
			Party:      party,
			Result:     result,
			TripIDs:    o.tripIDs,
			IsEdit:     o.editID != "",
			ExistingID: o.editID,
		})
		if err != nil {
			return fmt.Errorf("save calculation: %w", err)
		}
		fmt.Fprintf(stdout, "\nsaved calculation %s\n", saved.ID)
	}

	if o.pdfPath == "" {
		return nil
	}
	var out []byte
	if saved.ID != "" {
		out, err = client.StatementPDF(ctx, saved.ID, o.lang)
	} else {
		out, err = pdf.RenderStatement(pdf.StatementDocument{Lang: o.lang, Date: time.Now(), Statement: st})
	}
	if err != nil {
		return fmt.Errorf("statement pdf: %w", err)
	}
	if err := os.WriteFile(o.pdfPath, out, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", o.pdfPath)
	return nil
}

func printStatement(w io.Writer, lang string, st settlement.Statement) error {
	tr := func(code string) string { return i18n.T(lang, code) }
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	for _, section := range []struct {
		title string
		lines []settlement.Line
	}{
		{tr("advances"), st.Lines.Advances},
		{tr("expenses"), st.Lines.Expenses},
	} {
		fmt.Fprintf(tw, "%s\n", strings.ToUpper(section.title))
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", tr("date"), tr("trip"), tr("reason"), tr("recipient"), tr("amount"))
		for _, l := range section.lines {
			reason := l.Reason
			if l.Placeholder {
				reason = tr("no_records")
			}
			date := ""
			if !l.Date.IsZero() {
				date = l.Date.Format("02-01-2006")
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", date, l.TripNumber, reason, l.Recipient, settlement.Money(l.Amount))
		}
		fmt.Fprintln(tw)
	}

	printRows(tw, strings.ToUpper(tr("km_block")), st.KmBlock, tr)
	printRows(tw, strings.ToUpper(tr("summary")), st.Summary, tr)
	fmt.Fprintf(tw, "%s\n", tr(settlement.DirectionCode(st.Direction, st.Ownership)))

	if st.Pod != nil {
		fmt.Fprintln(tw)
		printRows(tw, strings.ToUpper(tr("pod_block")), st.Pod.Balances, tr)
		fmt.Fprintf(tw, "%s\t%s\n", tr("pod_total"), settlement.Money(st.Pod.Total))
		fmt.Fprintf(tw, "%s\t%s\n", tr("net_after_pod"), settlement.Money(st.Pod.NetAfterPod))
	}
	return tw.Flush()
}

func printRows(w io.Writer, title string, rows []settlement.Row, tr func(string) string) {
	fmt.Fprintf(w, "%s\n", title)
	for _, r := range rows {
		caption := tr(r.Code)
		if r.Code == "pod_balance" {
			caption = r.Label
		}
		fmt.Fprintf(w, "%s\t%s\n", caption, settlement.Money(r.Amount))
	}
	fmt.Fprintln(w)
}
