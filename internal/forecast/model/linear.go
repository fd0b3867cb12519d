// Package model loads the externally trained regression artifact and serves it
// through a Provider.
package model

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	apperrors "sales-forecast/internal/common/errors"
	"sales-forecast/internal/models"
)

// Model is the contract the pipeline depends on: a declared ordered feature list and
// a columnar predict. The frame passed to Predict holds exactly FeatureNames, in order.
type Model interface {
	FeatureNames() []string
	Predict(ctx context.Context, frame *models.Frame) ([]float64, error)
}

// Artifact is the serialized linear regression exported by the training pipeline.
// Predictions are on the square-root scale of Item_Outlet_Sales.
type Artifact struct {
	Name           string                        `json:"name" yaml:"name"`
	Version        string                        `json:"version" yaml:"version"`
	FeatureNamesIn []string                      `json:"feature_names_in" yaml:"feature_names_in"`
	Intercept      float64                       `json:"intercept" yaml:"intercept"`
	Numeric        map[string]float64            `json:"numeric" yaml:"numeric"`
	Categorical    map[string]map[string]float64 `json:"categorical" yaml:"categorical"`
}

// term maps one declared feature onto its slice of the design matrix.
type term struct {
	feature string
	numeric bool
	offset  int
	levels  map[string]int
}

// Linear evaluates an Artifact. Categorical features are one-hot encoded; a level
// the model never saw contributes nothing.
type Linear struct {
	artifact Artifact
	terms    []term
	coef     *mat.VecDense
}

// NewLinear validates the artifact and lays out its design matrix.
func NewLinear(a Artifact) (*Linear, error) {
	if len(a.FeatureNamesIn) == 0 {
		return nil, fmt.Errorf("artifact declares no features")
	}

	var (
		terms []term
		coefs []float64
		seen  = make(map[string]bool, len(a.FeatureNamesIn))
	)
	for _, feature := range a.FeatureNamesIn {
		if seen[feature] {
			return nil, fmt.Errorf("feature %s declared twice", feature)
		}
		seen[feature] = true

		w, isNum := a.Numeric[feature]
		levels, isCat := a.Categorical[feature]
		switch {
		case isNum && isCat:
			return nil, fmt.Errorf("feature %s is both numeric and categorical", feature)
		case isNum:
			terms = append(terms, term{feature: feature, numeric: true, offset: len(coefs)})
			coefs = append(coefs, w)
		case isCat:
			t := term{feature: feature, offset: len(coefs), levels: make(map[string]int, len(levels))}
			names := make([]string, 0, len(levels))
			for level := range levels {
				names = append(names, level)
			}
			sort.Strings(names)
			for i, level := range names {
				t.levels[level] = i
				coefs = append(coefs, levels[level])
			}
			terms = append(terms, t)
		default:
			return nil, fmt.Errorf("feature %s has no coefficients", feature)
		}
	}
	if len(coefs) == 0 {
		return nil, fmt.Errorf("artifact has no coefficients")
	}

	return &Linear{artifact: a, terms: terms, coef: mat.NewVecDense(len(coefs), coefs)}, nil
}

func (l *Linear) FeatureNames() []string {
	return append([]string(nil), l.artifact.FeatureNamesIn...)
}

func (l *Linear) Name() string {
	return l.artifact.Name
}

func (l *Linear) Version() string {
	return l.artifact.Version
}

// Predict builds the design matrix for every row and returns X·β + intercept.
func (l *Linear) Predict(ctx context.Context, frame *models.Frame) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names := frame.Names()
	if !equalNames(names, l.artifact.FeatureNamesIn) {
		missing, extra := diffNames(l.artifact.FeatureNamesIn, names)
		return nil, apperrors.NewSchemaMismatchError(missing, extra)
	}

	rows := frame.Rows()
	if rows == 0 {
		return []float64{}, nil
	}

	cols := l.coef.Len()
	x := mat.NewDense(rows, cols, nil)
	for _, t := range l.terms {
		col, _ := frame.Column(t.feature)
		if t.numeric {
			if !col.Numeric {
				return nil, apperrors.NewColumnTypeError(t.feature, "numeric")
			}
			for r, v := range col.Num {
				x.Set(r, t.offset, v)
			}
			continue
		}
		if col.Numeric {
			return nil, apperrors.NewColumnTypeError(t.feature, "categorical")
		}
		for r, v := range col.Text {
			if idx, ok := t.levels[v]; ok {
				x.Set(r, t.offset+idx, 1)
			}
		}
	}

	var y mat.VecDense
	y.MulVec(x, l.coef)

	out := make([]float64, rows)
	for r := range out {
		out[r] = y.AtVec(r) + l.artifact.Intercept
	}
	return out, nil
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func diffNames(want, got []string) (missing, extra []string) {
	gotSet := make(map[string]bool, len(got))
	for _, n := range got {
		gotSet[n] = true
	}
	wantSet := make(map[string]bool, len(want))
	for _, n := range want {
		wantSet[n] = true
		if !gotSet[n] {
			missing = append(missing, n)
		}
	}
	for _, n := range got {
		if !wantSet[n] {
			extra = append(extra, n)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		extra = []string{"column order differs: " + strings.Join(got, ",")}
	}
	return missing, extra
}

// ResolvePath anchors a relative artifact path at the working directory.
func ResolvePath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, path), nil
}

// LoadFile reads an artifact from path (.json, .yaml or .yml).
func LoadFile(path string) (*Linear, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return nil, apperrors.NewModelLoadFailedError(path, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, apperrors.NewModelLoadFailedError(resolved, err)
	}

	var a Artifact
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &a)
	default:
		err = json.Unmarshal(data, &a)
	}
	if err != nil {
		return nil, apperrors.NewModelLoadFailedError(resolved, err)
	}

	m, err := NewLinear(a)
	if err != nil {
		return nil, apperrors.NewModelLoadFailedError(resolved, err)
	}
	return m, nil
}
