package query

import (
	"fmt"

	"github.com/bijux/atlas/internal/atlaserr"
	"github.com/bijux/atlas/internal/atlasconfig"
)

// ValidateRequest implements spec §4.5.2's validate_request: limit bounds,
// prefix length bounds, prefix/region cost bounds, the "at least one filter
// or allow_full_scan" rule, and the non-gene_id total work-unit ceiling.
// On success it returns the request's cost classification and estimate so
// callers do not have to recompute them.
func ValidateRequest(req GeneQueryRequest, limits atlasconfig.QueryLimits) (Classification, int64, error) {
	if req.Limit < 1 || req.Limit > limits.MaxLimit {
		return "", 0, atlaserr.NewExecError(atlaserr.ExecValidation,
			fmt.Sprintf("limit %d out of range [1, %d]", req.Limit, limits.MaxLimit), nil)
	}

	if req.Filter.NamePrefix != nil {
		n := len(*req.Filter.NamePrefix)
		if n < limits.MinPrefixLen || n > limits.MaxPrefixLen {
			return "", 0, atlaserr.NewExecError(atlaserr.ExecValidation,
				fmt.Sprintf("name_prefix length %d out of range [%d, %d]", n, limits.MinPrefixLen, limits.MaxPrefixLen), nil)
		}
	}

	if req.Filter.Region != nil {
		span := req.Filter.Region.End - req.Filter.Region.Start
		if span > limits.MaxRegionSpan {
			return "", 0, atlaserr.NewExecError(atlaserr.ExecValidation,
				fmt.Sprintf("region span %d exceeds max_region_span %d", span, limits.MaxRegionSpan), nil)
		}
	}

	if !req.Filter.hasAny() && !req.AllowFullScan {
		return "", 0, atlaserr.NewExecError(atlaserr.ExecValidation,
			"request has no filter and allow_full_scan is not set", nil)
	}

	class := Classify(req.Filter)
	cost := EstimateCost(class, req.Limit, req.Filter)

	if req.Filter.NamePrefix != nil && cost > limits.MaxPrefixCostUnits {
		return "", 0, atlaserr.NewExecError(atlaserr.ExecValidation,
			fmt.Sprintf("prefix query cost %d exceeds max_prefix_cost_units %d", cost, limits.MaxPrefixCostUnits), nil)
	}

	if class != Cheap && cost > limits.MaxWorkUnits {
		return "", 0, atlaserr.NewExecError(atlaserr.ExecPolicy,
			fmt.Sprintf("query cost %d exceeds max_work_units %d", cost, limits.MaxWorkUnits), nil)
	}

	return class, cost, nil
}
