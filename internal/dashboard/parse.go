package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedPayload indicates a tool payload deviated from the
// expected shape. The wrapped message names the JSON path.
var ErrMalformedPayload = errors.New("malformed tool payload")

// ToolError marks a snapshot failure with the source tool that caused
// it, so callers can report which fetch failed without exposing the
// underlying cause.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string { return e.Err.Error() }
func (e *ToolError) Unwrap() error { return e.Err }

const (
	assetPrefix     = "ASSET_TYPE_"
	liabilityPrefix = "LIABILITY"
)

// Wire shapes of the two source payloads. Money amounts arrive as
// decimal strings in the units field.
type moneyValue struct {
	CurrencyCode string `json:"currencyCode"`
	Units        string `json:"units"`
}

type assetEntry struct {
	NetWorthAttribute string     `json:"netWorthAttribute"`
	Value             moneyValue `json:"value"`
}

type netWorthPayload struct {
	NetWorthResponse *struct {
		AssetValues        []assetEntry `json:"assetValues"`
		TotalNetWorthValue *moneyValue  `json:"totalNetWorthValue"`
	} `json:"netWorthResponse"`
}

type creditReportPayload struct {
	CreditReports []struct {
		CreditReportData *struct {
			Score *struct {
				BureauScore string `json:"bureauScore"`
			} `json:"score"`
		} `json:"creditReportData"`
	} `json:"creditReports"`
}

// parseNetWorth extracts the total and the asset breakdown. Entries
// tagged as liabilities are dropped; the remaining category labels lose
// the ASSET_TYPE_ prefix.
func parseNetWorth(raw string) (int64, []Asset, error) {
	var payload netWorthPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if payload.NetWorthResponse == nil {
		return 0, nil, fmt.Errorf("%w: missing netWorthResponse", ErrMalformedPayload)
	}
	if payload.NetWorthResponse.TotalNetWorthValue == nil {
		return 0, nil, fmt.Errorf("%w: missing netWorthResponse.totalNetWorthValue", ErrMalformedPayload)
	}

	total, err := parseUnits(payload.NetWorthResponse.TotalNetWorthValue.Units)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: netWorthResponse.totalNetWorthValue.units: %v", ErrMalformedPayload, err)
	}

	assets := make([]Asset, 0, len(payload.NetWorthResponse.AssetValues))
	for i, entry := range payload.NetWorthResponse.AssetValues {
		if entry.NetWorthAttribute == "" {
			return 0, nil, fmt.Errorf("%w: missing netWorthResponse.assetValues[%d].netWorthAttribute", ErrMalformedPayload, i)
		}
		if strings.HasPrefix(entry.NetWorthAttribute, liabilityPrefix) {
			continue
		}
		value, err := parseUnits(entry.Value.Units)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: netWorthResponse.assetValues[%d].value.units: %v", ErrMalformedPayload, i, err)
		}
		assets = append(assets, Asset{
			Type:  strings.TrimPrefix(entry.NetWorthAttribute, assetPrefix),
			Value: value,
		})
	}

	return total, assets, nil
}

// parseCreditScore extracts the bureau score from the first report.
func parseCreditScore(raw string) (int, error) {
	var payload creditReportPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if len(payload.CreditReports) == 0 {
		return 0, fmt.Errorf("%w: missing creditReports", ErrMalformedPayload)
	}
	data := payload.CreditReports[0].CreditReportData
	if data == nil || data.Score == nil {
		return 0, fmt.Errorf("%w: missing creditReports[0].creditReportData.score", ErrMalformedPayload)
	}

	score, err := strconv.Atoi(data.Score.BureauScore)
	if err != nil {
		return 0, fmt.Errorf("%w: creditReports[0].creditReportData.score.bureauScore: %v", ErrMalformedPayload, err)
	}
	return score, nil
}

// parseUnits converts a decimal amount string to an integer value.
func parseUnits(units string) (int64, error) {
	if units == "" {
		return 0, errors.New("empty amount")
	}
	value, err := strconv.ParseInt(units, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %v", units, err)
	}
	return value, nil
}
