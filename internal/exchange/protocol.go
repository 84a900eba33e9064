package exchange

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"everypay-integration/internal/domain/model"
)

// Version selects one revision of the gateway's signing contract. Revisions are not
// compatible with each other; an exchange speaks exactly one.
type Version int

const (
	// VersionFixedSubset signs responses over a fixed, result dependent field subset.
	VersionFixedSubset Version = 1
	// VersionManifest lists the signed fields in hmac_fields.
	VersionManifest Version = 2
	// VersionSortedManifest is VersionManifest with a sorted manifest that names itself.
	VersionSortedManifest Version = 3
)

func (v Version) String() string {
	switch v {
	case VersionFixedSubset:
		return "v1-fixed-subset"
	case VersionManifest:
		return "v2-manifest"
	case VersionSortedManifest:
		return "v3-sorted-manifest"
	default:
		return fmt.Sprintf("v%d-unknown", int(v))
	}
}

func (v Version) valid() bool {
	return v >= VersionFixedSubset && v <= VersionSortedManifest
}

// DefaultWindow is the freshness tolerance each revision shipped with.
func (v Version) DefaultWindow() time.Duration {
	if v == VersionFixedSubset {
		return 300 * time.Second
	}
	return 600 * time.Second
}

// ParseVersion accepts 1..3, optionally prefixed with "v".
func ParseVersion(s string) (Version, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(s), "v"))
	if err != nil {
		return 0, fmt.Errorf("protocol version %q: %w", s, err)
	}
	v := Version(n)
	if !v.valid() {
		return 0, fmt.Errorf("protocol version %q is not supported", s)
	}
	return v, nil
}

var commonResponseFields = []string{
	model.FieldAPIUsername,
	model.FieldNonce,
	model.FieldOrderReference,
	model.FieldPaymentState,
	model.FieldTimestamp,
	model.FieldTransactionResult,
}

// fixedSubset selects the legacy response subset for the payload's transaction_result.
func fixedSubset(in model.Fields) model.Fields {
	out := make(model.Fields, len(commonResponseFields)+4)
	for _, k := range commonResponseFields {
		out[k] = in[k]
	}
	switch in[model.FieldTransactionResult] {
	case model.ResultCompleted, model.ResultFailed:
		// processing_* only appear in the automatic callback, never both
		if in.Has(model.FieldProcessingErrors) {
			out[model.FieldProcessingErrors] = in[model.FieldProcessingErrors]
		} else if in.Has(model.FieldProcessingWarning) {
			out[model.FieldProcessingWarning] = in[model.FieldProcessingWarning]
		}
		out[model.FieldAccountID] = in[model.FieldAccountID]
		out[model.FieldAmount] = in[model.FieldAmount]
		out[model.FieldPaymentReference] = in[model.FieldPaymentReference]
	}
	return out
}

// manifestSubset selects the fields named by hmac_fields, plus hmac_fields itself.
// Listed fields missing from the payload sign as empty strings.
func manifestSubset(in model.Fields) (model.Fields, bool) {
	manifest, ok := in[model.FieldHMACFields]
	if !ok || manifest == "" {
		return nil, false
	}
	out := model.Fields{model.FieldHMACFields: manifest}
	for _, name := range strings.Split(manifest, ",") {
		if name == "" {
			continue
		}
		out[name] = in[name]
	}
	return out, true
}

// buildManifest lists the names that will be signed in an outbound request.
func (v Version) buildManifest(fields model.Fields) string {
	names := make([]string, 0, len(fields)+1)
	for k := range fields {
		if k == model.FieldHMACFields {
			continue
		}
		names = append(names, k)
	}
	if v == VersionSortedManifest {
		names = append(names, model.FieldHMACFields)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
