package diasend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/burnedikt/diasend-nightscout-bridge/errors"
)

//go:generate mockgen --build_flags=--mod=mod -source=./scraper.go -destination=./test/mock_pump_settings_source.go -package test PumpSettingsSource

const (
	UnitsMgdl    = "mg/dl"
	UnitsMmoll   = "mmol/l"
	loginPath    = "/diasend/includes/account/login.php"
	loginCountry = "108"
	loginLocale  = "en_US"
)

var userIdRegexp = regexp.MustCompile(`/reports/(.*)/summary`)

// ScheduleEntry is a value that applies from Start (HH:MM) until the next entry of its schedule.
type ScheduleEntry struct {
	Start string
	Value float64
}

type PumpSettings struct {
	BasalProfile                []ScheduleEntry
	InsulinCarbRatioProfile     []ScheduleEntry
	InsulinSensitivityProfile   []ScheduleEntry
	BloodGlucoseTargetLow       *float64
	BloodGlucoseTargetHigh      *float64
	InsulinOnBoardDurationHours *float64
	Units                       string
}

// PumpSettingsSource provides the pump's therapy settings. Diasend only exposes them on its website.
type PumpSettingsSource interface {
	FetchPumpSettings(ctx context.Context) (*PumpSettings, error)
}

type Scraper struct {
	baseUrl  string
	username string
	password string
	logger   *zap.SugaredLogger
}

var _ PumpSettingsSource = &Scraper{}

func NewScraper(cfg *Config, logger *zap.SugaredLogger) *Scraper {
	return &Scraper{
		baseUrl:  strings.TrimSuffix(cfg.WebsiteUrl, "/"),
		username: cfg.Username,
		password: cfg.Password,
		logger:   logger,
	}
}

func (s *Scraper) FetchPumpSettings(ctx context.Context) (*PumpSettings, error) {
	client, userId, err := s.login(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/reports/%s/insulin/pump-settings", s.baseUrl, url.PathEscape(userId)), nil)
	if err != nil {
		return nil, err
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch pump settings: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("unable to fetch pump settings: %w", errors.FromResponse(res.StatusCode, body))
	}

	settings, err := ParsePumpSettings(res.Body)
	if err != nil {
		return nil, err
	}

	s.logger.Debugw("scraped pump settings", "basalEntries", len(settings.BasalProfile), "units", settings.Units)
	return settings, nil
}

// login starts a website session. The session lives in the returned client's cookie jar.
func (s *Scraper) login(ctx context.Context) (*http.Client, string, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, "", err
	}
	client := &http.Client{
		Jar:       jar,
		Transport: userAgentTransport{base: http.DefaultTransport},
		// The redirect target reveals the user id and must not be followed.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	form := url.Values{}
	form.Set("country", loginCountry)
	form.Set("locale", loginLocale)
	form.Set("user", s.username)
	form.Set("passwd", s.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseUrl+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("unable to log in to diasend website: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	matches := userIdRegexp.FindStringSubmatch(res.Header.Get("Location"))
	if len(matches) < 2 || matches[1] == "" {
		return nil, "", fmt.Errorf("unable to log in to diasend website: %w", errors.Unauthorized)
	}

	return client, matches[1], nil
}

// ParsePumpSettings extracts the settings from the pump settings report page.
func ParsePumpSettings(r io.Reader) (*PumpSettings, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pump settings page: %w", err)
	}

	settings := &PumpSettings{}

	activeProgram := valueOf(doc, "Active basal program")
	if activeProgram != "" {
		program := doc.Find("h4").FilterFunction(func(_ int, h *goquery.Selection) bool {
			return strings.HasPrefix(strings.TrimSpace(h.Text()), "Program: "+activeProgram)
		}).First().NextFiltered("table")
		settings.BasalProfile = scheduleOf(program.Find("tr"))
	}

	settings.InsulinCarbRatioProfile = scheduleOf(nestedTableUnder(doc, "I:C ratio settings").Find("tr"))
	settings.InsulinSensitivityProfile = scheduleOf(nestedTableUnder(doc, "ISF programs").Find("tr"))

	if low := valueOf(doc, "BG goal low"); low != "" {
		fields := strings.Fields(low)
		settings.BloodGlucoseTargetLow = leadingNumber(low)
		if len(fields) > 1 && strings.ToLower(fields[1]) == UnitsMgdl {
			settings.Units = UnitsMgdl
		} else {
			settings.Units = UnitsMmoll
		}
	}
	if high := valueOf(doc, "BG goal high"); high != "" {
		settings.BloodGlucoseTargetHigh = leadingNumber(high)
	}
	if iob := valueOf(doc, "Insulin-On-Board Duration"); iob != "" {
		settings.InsulinOnBoardDurationHours = leadingNumber(iob)
	}

	return settings, nil
}

// valueOf returns the text of the cell following the cell labelled label.
func valueOf(doc *goquery.Document, label string) string {
	return strings.TrimSpace(doc.Find("td").FilterFunction(func(_ int, td *goquery.Selection) bool {
		return strings.TrimSpace(td.Text()) == label
	}).First().Next().Text())
}

func nestedTableUnder(doc *goquery.Document, heading string) *goquery.Selection {
	return doc.Find("h3").FilterFunction(func(_ int, h *goquery.Selection) bool {
		return strings.TrimSpace(h.Text()) == heading
	}).First().NextFiltered("table").Find("table")
}

// scheduleOf reads (start, value) pairs from the last two cells of each row, skipping the header row.
func scheduleOf(rows *goquery.Selection) []ScheduleEntry {
	var schedule []ScheduleEntry
	rows.Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := row.ChildrenFiltered("td")
		n := cells.Length()
		if n < 2 {
			return
		}
		value := leadingNumber(cells.Eq(n - 1).Text())
		if value == nil {
			return
		}
		schedule = append(schedule, ScheduleEntry{
			Start: strings.TrimSpace(cells.Eq(n - 2).Text()),
			Value: *value,
		})
	})
	return schedule
}

func leadingNumber(text string) *float64 {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return nil
	}
	return &v
}
