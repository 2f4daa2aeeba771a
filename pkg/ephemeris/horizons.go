package ephemeris

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cosmossdk.io/errors"
)

// DefaultHorizonsURL is the JPL Horizons API endpoint.
const DefaultHorizonsURL = "https://ssd.jpl.nasa.gov/api/horizons.api"

// gmSun is the solar gravitational parameter in km³/s², used to convert
// catalog GM values to solar masses.
const gmSun = 1.32712440018e11

// daysPerYear converts the AU/day velocities Horizons returns to the
// pipeline's AU/yr.
const daysPerYear = 365.25

// Horizons queries the JPL Horizons system for body states. An optional
// Cache short-circuits repeated lookups of the same body and epoch.
type Horizons struct {
	BaseURL string
	Client  *http.Client
	Cache   *Cache
}

// NewHorizons returns a Horizons provider with the given request timeout.
// A zero timeout disables the client-side deadline.
func NewHorizons(timeout time.Duration) *Horizons {
	return &Horizons{
		BaseURL: DefaultHorizonsURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

// horizonsResponse is the JSON envelope around the classic text report.
type horizonsResponse struct {
	Result string `json:"result"`
	Error  string `json:"error"`
}

var gmPattern = regexp.MustCompile(`GM[^=\n]*=\s*([0-9][0-9.eEdD+-]*)`)

// Lookup implements Provider against the live Horizons service.
func (h *Horizons) Lookup(ctx context.Context, name string, epochJD float64, barycentric bool) (BodyState, error) {
	epoch := FormatEpoch(epochJD)

	if h.Cache != nil {
		if state, ok, err := h.Cache.Get(name, epoch, barycentric); err != nil {
			log.Printf("Warning: ephemeris cache read failed: %v", err)
		} else if ok {
			return state, nil
		}
	}

	report, err := h.fetch(ctx, name, epoch, barycentric)
	if err != nil {
		return BodyState{}, err
	}

	state, err := parseVectorReport(name, report)
	if err != nil {
		return BodyState{}, err
	}

	if h.Cache != nil {
		if err := h.Cache.Put(name, epoch, barycentric, state); err != nil {
			log.Printf("Warning: ephemeris cache write failed: %v", err)
		}
	}
	return state, nil
}

func (h *Horizons) fetch(ctx context.Context, name, epoch string, barycentric bool) (string, error) {
	center := "500@10" // heliocentric
	if barycentric {
		center = "500@0" // solar system barycenter
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("COMMAND", quote(name))
	q.Set("OBJ_DATA", quote("YES"))
	q.Set("MAKE_EPHEM", quote("YES"))
	q.Set("EPHEM_TYPE", quote("VECTORS"))
	q.Set("VEC_TABLE", quote("2"))
	q.Set("CENTER", quote(center))
	q.Set("OUT_UNITS", quote("AU-D"))
	q.Set("CSV_FORMAT", quote("YES"))
	q.Set("TLIST_TYPE", quote("JD"))
	q.Set("TLIST", quote(epoch))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", errors.Wrap(ErrLookup, err.Error())
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return "", errors.Wrapf(ErrLookup, "horizons request for %q: %v", name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrapf(ErrLookup, "reading horizons response for %q: %v", name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Wrapf(ErrLookup, "horizons returned HTTP %d for %q", resp.StatusCode, name)
	}

	var envelope horizonsResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", errors.Wrapf(ErrLookup, "decoding horizons response for %q: %v", name, err)
	}
	if envelope.Error != "" {
		return "", errors.Wrapf(ErrLookup, "horizons error for %q: %s", name, envelope.Error)
	}
	return envelope.Result, nil
}

// parseVectorReport extracts mass and state vector from a Horizons CSV
// vector report. A missing GM is not an error: minor bodies commonly have
// no measured mass and proceed as massless.
func parseVectorReport(name, report string) (BodyState, error) {
	if strings.Contains(report, "No matches found") ||
		strings.Contains(report, "Cannot find") {
		return BodyState{}, errors.Wrapf(ErrLookup, "no match for %q", name)
	}

	state := BodyState{Name: name}

	if m := gmPattern.FindStringSubmatch(report); m != nil {
		raw := strings.NewReplacer("D", "E", "d", "E").Replace(m[1])
		if gm, err := strconv.ParseFloat(raw, 64); err == nil && gm > 0 {
			state.Mass = gm / gmSun
		}
	}

	start := strings.Index(report, "$$SOE")
	end := strings.Index(report, "$$EOE")
	if start < 0 || end < 0 || end <= start {
		return BodyState{}, errors.Wrapf(ErrLookup, "no state vector in horizons report for %q", name)
	}

	block := strings.TrimSpace(report[start+len("$$SOE") : end])
	line := strings.SplitN(block, "\n", 2)[0]
	fields := strings.Split(line, ",")
	// CSV vector table 2: JDTDB, calendar date, X, Y, Z, VX, VY, VZ
	if len(fields) < 8 {
		return BodyState{}, errors.Wrapf(ErrLookup, "short vector record for %q: %s", name, line)
	}

	vals := make([]float64, 6)
	for i := 0; i < 6; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i+2]), 64)
		if err != nil {
			return BodyState{}, errors.Wrapf(ErrLookup, "bad vector field %q for %q", fields[i+2], name)
		}
		vals[i] = v
	}

	state.Position.X, state.Position.Y, state.Position.Z = vals[0], vals[1], vals[2]
	// AU/day from Horizons, AU/yr internally
	state.Velocity.X = vals[3] * daysPerYear
	state.Velocity.Y = vals[4] * daysPerYear
	state.Velocity.Z = vals[5] * daysPerYear
	return state, nil
}

func quote(s string) string {
	return fmt.Sprintf("'%s'", s)
}
