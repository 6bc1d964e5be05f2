// Package classify turns comment embeddings into gated emotion scores by
// comparing them with label prototype embeddings
package classify

import (
	"math"

	"danmood/internal/core/labels"
	perr "danmood/internal/platform/errors"
)

// Config holds the classification tunables
type Config struct {
	// Temperature sharpens (small) or flattens (large) the softmax, in [0.01, 1]
	Temperature float64 `json:"temperature" validate:"gte=0.01,lte=1"`
	// MinBest is the lowest best-similarity that is trusted
	MinBest float64 `json:"min_best" validate:"gte=0,lte=1"`
	// MinMargin is the lowest best-minus-second gap that is trusted
	MinMargin float64 `json:"min_margin" validate:"gte=0,lte=1"`
}

// DefaultConfig returns the stock thresholds
func DefaultConfig() Config {
	return Config{Temperature: 0.08, MinBest: 0.2, MinMargin: 0.06}
}

// Clamped returns c with every field forced into its valid range
func (c Config) Clamped() Config {
	return Config{
		Temperature: Clamp(c.Temperature, 0.01, 1),
		MinBest:     Clamp(c.MinBest, 0, 1),
		MinMargin:   Clamp(c.MinMargin, 0, 1),
	}
}

// WeightFuser adjusts a label distribution for a comment at time t before the
// final label and scores are derived. It must return a vector of the same length
type WeightFuser interface {
	FuseWeights(t float64, weights []float64) []float64
}

// Result is the classification of one comment
type Result struct {
	Time       float64 `json:"t"`
	Text       string  `json:"text"`
	LabelKey   string  `json:"label"`
	LabelIndex int     `json:"label_index"`
	Score      float64 `json:"score"`
	Valence    float64 `json:"valence"`
	Arousal    float64 `json:"arousal"`
	Confidence float64 `json:"confidence"`
	Gated      bool    `json:"gated,omitempty"`
}

// Classifier scores embeddings against a fixed set of prototypes
type Classifier struct {
	set    labels.Set
	protos [][]float64
	dims   int
	cfg    Config

	pol, val, aro []float64
}

// New builds a Classifier. protos must hold one embedding per label, all of the
// same length; they are normalized here
func New(set labels.Set, protos [][]float64, cfg Config) (*Classifier, error) {
	if set.Len() == 0 {
		return nil, perr.Preconditionf("classifier needs at least one label")
	}
	if len(protos) != set.Len() {
		return nil, perr.InvalidArgf("got %d prototype embeddings for %d labels", len(protos), set.Len())
	}
	dims := len(protos[0])
	if dims == 0 {
		return nil, perr.InvalidArgf("prototype embeddings are empty")
	}
	c := &Classifier{set: set, dims: dims, cfg: cfg.Clamped(), protos: make([][]float64, len(protos))}
	for i, p := range protos {
		if len(p) != dims {
			return nil, perr.WithField(
				perr.InvalidArgf("prototype %q has %d dims, want %d", set.At(i).Key, len(p), dims), "dimensions")
		}
		c.protos[i] = Norm(p)
	}
	for _, l := range set.All() {
		c.pol = append(c.pol, l.Polarity)
		c.val = append(c.val, l.Valence)
		c.aro = append(c.aro, l.Arousal)
	}
	return c, nil
}

// Dims is the embedding length every input must have
func (c *Classifier) Dims() int { return c.dims }

// Labels returns the active label set
func (c *Classifier) Labels() labels.Set { return c.set }

// Similarities returns the cosine similarity of vec to every prototype
// along with the best and second-best values and the best index
func (c *Classifier) Similarities(vec []float64) (sims []float64, best, second float64, bestIdx int, err error) {
	if len(vec) != c.dims {
		return nil, 0, 0, 0, perr.WithField(
			perr.InvalidArgf("embedding has %d dims, want %d", len(vec), c.dims), "dimensions")
	}
	u := Norm(vec)
	sims = make([]float64, len(c.protos))
	best, second = math.Inf(-1), math.Inf(-1)
	for k, p := range c.protos {
		s := Dot(u, p)
		sims[k] = s
		if s > best {
			second, best, bestIdx = best, s, k
		} else if s > second {
			second = s
		}
	}
	return sims, best, second, bestIdx, nil
}

// Distribution is the softmax of vec's similarities at the configured temperature
func (c *Classifier) Distribution(vec []float64) ([]float64, error) {
	sims, _, _, _, err := c.Similarities(vec)
	if err != nil {
		return nil, err
	}
	return Softmax(sims, c.cfg.Temperature), nil
}

// Classify scores one comment. fuser may be nil. Comments whose best match is
// too weak or too close to the runner-up are forced to the neutral label with
// zero scores; the rest get softmax-weighted affect attenuated by confidence
func (c *Classifier) Classify(t float64, text string, vec []float64, fuser WeightFuser) (Result, error) {
	sims, best, second, bestIdx, err := c.Similarities(vec)
	if err != nil {
		return Result{}, err
	}
	margin := best - second
	conf := Clamp(margin, 0, 1)
	weights := Softmax(sims, c.cfg.Temperature)
	if fuser != nil {
		if fused := fuser.FuseWeights(t, weights); len(fused) == len(weights) {
			weights = fused
		}
	}

	r := Result{Time: t, Text: text}
	if best < c.cfg.MinBest || margin < c.cfg.MinMargin {
		r.LabelIndex = c.set.NeutralIndex()
		if r.LabelIndex < 0 {
			r.LabelIndex = bestIdx
		}
		r.LabelKey = c.set.At(r.LabelIndex).Key
		r.Gated = true
		return r, nil
	}

	gate := 0.5 + 0.5*conf
	r.LabelIndex = Argmax(weights)
	r.LabelKey = c.set.At(r.LabelIndex).Key
	r.Score = Clamp(Clamp(weighted(weights, c.pol), -1, 1)*gate, -1, 1)
	r.Valence = Clamp(Clamp(weighted(weights, c.val), -1, 1)*gate, -1, 1)
	r.Arousal = Clamp(Clamp(weighted(weights, c.aro), -1, 1)*gate, -1, 1)
	r.Confidence = conf
	return r, nil
}

func weighted(w, coord []float64) float64 {
	s := 0.0
	for i := range coord {
		s += w[i] * coord[i]
	}
	return s
}
