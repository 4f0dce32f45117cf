// Package verifier checks a reconciled dataset before it is replayed.
package verifier

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/dbsmedya/goalias/internal/logger"
	"github.com/dbsmedya/goalias/internal/reconcile"
	"github.com/dbsmedya/goalias/internal/types"
)

// VerificationMethod defines how thoroughly a dataset is checked.
type VerificationMethod string

const (
	// MethodCount checks row counts and identifier sanity (fast)
	MethodCount VerificationMethod = "count"
	// MethodSHA256 additionally fingerprints the mapping
	MethodSHA256 VerificationMethod = "sha256"
	// MethodSkip skips verification entirely
	MethodSkip VerificationMethod = "skip"
)

// IssueKind classifies a verification finding.
type IssueKind string

const (
	IssueNonNumericID  IssueKind = "non_numeric_id"
	IssueDuplicateKey  IssueKind = "duplicate_key"
	IssueSharedID      IssueKind = "shared_id"
	IssueCountMismatch IssueKind = "count_mismatch"
)

// Issue is one finding.
type Issue struct {
	Kind   IssueKind
	Key    string
	Detail string
}

func (i Issue) String() string {
	if i.Key == "" {
		return fmt.Sprintf("%s: %s", i.Kind, i.Detail)
	}
	return fmt.Sprintf("%s [%s]: %s", i.Kind, i.Key, i.Detail)
}

// VerifyResult holds the verification outcome for one dataset.
type VerifyResult struct {
	Kind       types.RecordKind
	Method     VerificationMethod
	OldRows    int
	NewRows    int
	Keys       int
	Complete   int
	Incomplete int
	Digest     string // hex sha256, MethodSHA256 only
	Issues     []Issue
}

// Passed reports whether no issue was found.
func (r *VerifyResult) Passed() bool {
	return len(r.Issues) == 0
}

// Verifier checks datasets with one method.
type Verifier struct {
	method VerificationMethod
	logger *logger.Logger
}

// NewVerifier creates a verifier. An empty method means MethodCount.
func NewVerifier(method VerificationMethod, log *logger.Logger) *Verifier {
	if method == "" {
		method = MethodCount
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Verifier{method: method, logger: log}
}

// Verify inspects ds. oldRows and newRows are the number of parsed entries
// of each generation; they must be accounted for by the dataset.
func (v *Verifier) Verify(ds *reconcile.Dataset, oldRows, newRows int) *VerifyResult {
	result := &VerifyResult{
		Kind:       ds.Kind,
		Method:     v.method,
		OldRows:    oldRows,
		NewRows:    newRows,
		Keys:       ds.Len(),
		Complete:   ds.CompleteCount(),
		Incomplete: ds.IncompleteCount(),
	}
	log := v.logger.WithKind(ds.Kind)

	if v.method == MethodSkip {
		log.Info("Verification SKIPPED (method=skip)")
		return result
	}

	v.checkCounts(ds, result)
	v.checkIdentifiers(ds, result)
	for _, d := range ds.Duplicates {
		result.Issues = append(result.Issues, Issue{
			Kind:   IssueDuplicateKey,
			Key:    d.Key,
			Detail: fmt.Sprintf("%s dump lists the key twice (%s, then %s); %s is used", d.Generation, d.Previous, d.Current, d.Current),
		})
	}

	if v.method == MethodSHA256 {
		result.Digest = Digest(ds)
	}

	if result.Passed() {
		log.Infow("Verification PASSED", "keys", result.Keys, "complete", result.Complete, "incomplete", result.Incomplete)
	} else {
		log.Warnw("Verification found issues", "issues", len(result.Issues))
	}
	return result
}

// checkCounts makes sure every parsed row landed in the dataset.
func (v *Verifier) checkCounts(ds *reconcile.Dataset, result *VerifyResult) {
	var withOld, withNew int
	ds.Each(func(_ string, e reconcile.Entry) bool {
		if e.HasOld {
			withOld++
		}
		if e.HasNew {
			withNew++
		}
		return true
	})

	var dupOld, dupNew int
	for _, d := range ds.Duplicates {
		if d.Generation == reconcile.GenerationOld {
			dupOld++
		} else {
			dupNew++
		}
	}

	if withOld+dupOld != result.OldRows {
		result.Issues = append(result.Issues, Issue{
			Kind:   IssueCountMismatch,
			Detail: fmt.Sprintf("old dump has %d rows, dataset accounts for %d", result.OldRows, withOld+dupOld),
		})
	}
	if withNew+dupNew != result.NewRows {
		result.Issues = append(result.Issues, Issue{
			Kind:   IssueCountMismatch,
			Detail: fmt.Sprintf("new dump has %d rows, dataset accounts for %d", result.NewRows, withNew+dupNew),
		})
	}
}

// checkIdentifiers flags identifiers that are not decimal integers and
// identifiers claimed by more than one key within a generation.
func (v *Verifier) checkIdentifiers(ds *reconcile.Dataset, result *VerifyResult) {
	seenOld := map[string]string{}
	seenNew := map[string]string{}

	ds.Each(func(key string, e reconcile.Entry) bool {
		if e.HasOld {
			result.Issues = append(result.Issues, checkID(key, "old", e.Old, seenOld)...)
		}
		if e.HasNew {
			result.Issues = append(result.Issues, checkID(key, "new", e.New, seenNew)...)
		}
		return true
	})
}

func checkID(key, generation, id string, seen map[string]string) []Issue {
	var issues []Issue
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		issues = append(issues, Issue{
			Kind:   IssueNonNumericID,
			Key:    key,
			Detail: fmt.Sprintf("%s identifier %q is not a number", generation, id),
		})
	}
	if other, ok := seen[id]; ok {
		issues = append(issues, Issue{
			Kind:   IssueSharedID,
			Key:    key,
			Detail: fmt.Sprintf("%s identifier %s is also used by %s", generation, id, other),
		})
	} else {
		seen[id] = key
	}
	return issues
}

// Digest fingerprints the mapping in dataset order. Two runs over the same
// dumps produce the same digest.
func Digest(ds *reconcile.Dataset) string {
	h := sha256.New()
	ds.Each(func(key string, e reconcile.Entry) bool {
		fmt.Fprintf(h, "%s\x00%t\x00%s\x00%t\x00%s\n", key, e.HasOld, e.Old, e.HasNew, e.New)
		return true
	})
	return hex.EncodeToString(h.Sum(nil))
}
