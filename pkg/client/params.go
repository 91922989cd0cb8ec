package client

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ysakurai/bojstat-go/pkg/boj"
)

// buildCodeParams assembles the wire parameters for one getDataCode
// chunk request, mirroring the original implementation's inline
// params = {...}; params.update(raw) pattern in get_by_code. CODE is
// submitted as repeated values, one per code, preserving submission
// order since the server's NEXTPOSITION indexes into that order.
func buildCodeParams(req boj.Request, codes []string, startPosition int) map[string][]string {
	params := map[string][]string{
		"DB":            {req.DB},
		"CODE":          append([]string(nil), codes...),
		"LANG":          {string(req.Lang)},
		"FORMAT":        {string(req.Format)},
		"STARTPOSITION": {strconv.Itoa(startPosition)},
	}
	applyDateAndFrequency(params, req)
	return mergeRawParams(params, req)
}

// buildLayerParams assembles the wire parameters for one getDataLayer
// request. The layer path is flattened into the distinct LAYER1..LAYER5
// keys rather than a single joined value.
func buildLayerParams(req boj.Request, startPosition int) map[string][]string {
	params := map[string][]string{
		"DB":            {req.DB},
		"LANG":          {string(req.Lang)},
		"FORMAT":        {string(req.Format)},
		"STARTPOSITION": {strconv.Itoa(startPosition)},
	}
	applyLayerPath(params, req.Layer)
	applyDateAndFrequency(params, req)
	return mergeRawParams(params, req)
}

// buildMetadataParams assembles the wire parameters for a getMetadata
// request. Metadata has no pagination cursor.
func buildMetadataParams(req boj.Request) map[string][]string {
	params := map[string][]string{
		"DB":     {req.DB},
		"LANG":   {string(req.Lang)},
		"FORMAT": {string(req.Format)},
	}
	if len(req.Codes) > 0 {
		params["CODE"] = append([]string(nil), req.Codes...)
	}
	applyLayerPath(params, req.Layer)
	applyDateAndFrequency(params, req)
	return mergeRawParams(params, req)
}

// applyLayerPath flattens a layer path onto the official LAYER1..LAYER5
// keys, one value each, per the documented wire shape.
func applyLayerPath(params map[string][]string, layer []string) {
	for i, v := range layer {
		if i >= 5 {
			break
		}
		params[fmt.Sprintf("LAYER%d", i+1)] = []string{v}
	}
}

func applyDateAndFrequency(params map[string][]string, req boj.Request) {
	if req.Start != "" {
		params["STARTDATE"] = []string{req.Start}
	}
	if req.End != "" {
		params["ENDDATE"] = []string{req.End}
	}
	if req.Frequency != "" && req.Frequency != boj.FrequencyUnknown {
		params["FREQUENCY"] = []string{string(req.Frequency)}
	}
}

// mergeRawParams overlays req.RawParams onto params when AllowRawOverride
// is set, matching the original's params.update(raw) escape hatch for
// parameters this client doesn't otherwise expose. A raw override always
// replaces whatever repeated values the key already carried.
func mergeRawParams(params map[string][]string, req boj.Request) map[string][]string {
	if !req.AllowRawOverride || len(req.RawParams) == 0 {
		return params
	}
	for k, v := range req.RawParams {
		params[strings.ToUpper(strings.TrimSpace(k))] = []string{v}
	}
	return params
}
