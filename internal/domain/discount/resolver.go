package discount

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// Resolution classifies a set of submitted codes against a cart. The three
// code sets are disjoint; AppliesTo and Percentages only cover codes that
// survived classification (Applied plus Inapplicable for Percentages, so a
// client can still show the rate of a code that matched nothing).
type Resolution struct {
	// Applied maps each usable code to the cart ticket type names it covers.
	Applied map[string][]string
	// Inapplicable lists codes that exist and are not expired but match no
	// ticket type in the cart.
	Inapplicable []string
	// Invalid lists codes that are unknown or expired.
	Invalid []string
	// Percentages holds the discount rate for every non-invalid code.
	Percentages map[string]int

	applied map[string]*Discount
	covers  map[string]map[string]bool
}

// Changed reports whether any submitted code failed to resolve as usable.
// Checkout uses this to fail loudly instead of silently charging a
// different total than the one previewed.
func (r *Resolution) Changed() []string {
	if len(r.Invalid) == 0 && len(r.Inapplicable) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.Invalid)+len(r.Inapplicable))
	out = append(out, r.Invalid...)
	out = append(out, r.Inapplicable...)
	return out
}

// BestPercentFor returns the highest percentage among applied codes covering
// the given ticket type, or zero when none apply. Codes never stack.
func (r *Resolution) BestPercentFor(typeName string) int {
	best := 0
	for code, d := range r.applied {
		if r.covers[code][typeName] && d.Percentage > best {
			best = d.Percentage
		}
	}
	return best
}

// Resolver classifies discount codes against carts.
type Resolver struct {
	repo Repository
	now  func() time.Time
}

// NewResolver creates a Resolver backed by the given Repository.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo, now: time.Now}
}

// Resolve classifies each raw code against the cart's ticket type names.
// Blank codes are silently ignored. Codes are evaluated independently; the
// same cart may carry several usable codes at once.
func (r *Resolver) Resolve(ctx context.Context, cartTypeNames []string, rawCodes []string) (*Resolution, error) {
	inCart := make(map[string]bool, len(cartTypeNames))
	for _, name := range cartTypeNames {
		inCart[name] = true
	}

	res := &Resolution{
		Applied:     make(map[string][]string),
		Percentages: make(map[string]int),
		applied:     make(map[string]*Discount),
		covers:      make(map[string]map[string]bool),
	}

	today := atMidnight(r.now())

	for _, raw := range rawCodes {
		code := strings.TrimSpace(raw)
		if code == "" {
			continue
		}

		d, err := r.repo.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				res.Invalid = append(res.Invalid, code)
				continue
			}
			return nil, errors.Wrapf(err, "lookup discount %q", code)
		}
		if d.Expired(today) {
			res.Invalid = append(res.Invalid, code)
			continue
		}

		names, err := r.repo.TypeNamesFor(ctx, d.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "load ticket types for discount %q", code)
		}

		var matched []string
		for _, name := range names {
			if inCart[name] {
				matched = append(matched, name)
			}
		}

		res.Percentages[code] = d.Percentage
		if len(matched) == 0 {
			res.Inapplicable = append(res.Inapplicable, code)
			continue
		}

		res.Applied[code] = matched
		res.applied[code] = d
		covered := make(map[string]bool, len(matched))
		for _, name := range matched {
			covered[name] = true
		}
		res.covers[code] = covered
	}

	return res, nil
}
