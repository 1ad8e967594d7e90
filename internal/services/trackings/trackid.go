package trackings

import (
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BearBump/TrackSim/internal/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	IDFormatAlphanumeric = "alphanumeric"
	IDFormatNumeric      = "numeric"
	IDFormatCustom       = "custom"
)

const (
	alnum  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	digits = "0123456789"

	randomLen = 5
)

type Rand interface {
	Intn(n int) int
}

// IDGenerator builds tracking ids of the form prefix + random part + time part.
type IDGenerator struct {
	prefix   string
	format   string
	template string

	mu  sync.Mutex
	r   Rand
	now func() time.Time
}

// NewIDGenerator rejects settings whose ids could not be used as a URL path
// segment, and custom templates with no random part.
func NewIDGenerator(prefix, format, template string, r Rand) (*IDGenerator, error) {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	switch format {
	case IDFormatNumeric, IDFormatCustom:
	default:
		format = IDFormatAlphanumeric
	}
	if format == IDFormatCustom && template == "" {
		template = "{PREFIX}{RANDOM}{TIME}"
	}
	g := &IDGenerator{
		prefix:   strings.ToUpper(strings.TrimSpace(prefix)),
		format:   format,
		template: template,
		r:        r,
		now:      time.Now,
	}
	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// validate renders the widest possible id and checks it against the accepted
// tracking id shape.
func (g *IDGenerator) validate() error {
	if g.format == IDFormatCustom && !strings.Contains(g.template, "{RANDOM}") && !strings.Contains(g.template, "{UUID}") {
		return errors.Wrapf(models.ErrValidation, "tracking id template %q needs {RANDOM} or {UUID}", g.template)
	}
	sample := g.render(time.Date(2099, 12, 31, 23, 59, 59, 0, time.UTC), strings.Repeat("A", randomLen), strings.Repeat("A", 12))
	if !trackingIDRe.MatchString(sample) {
		return errors.Wrapf(models.ErrValidation, "tracking ids like %q are not valid, want %s", sample, trackingIDRe)
	}
	return nil
}

func (g *IDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	alphabet := alnum
	if g.format == IDFormatNumeric {
		alphabet = digits
	}
	return g.render(g.now().UTC(), g.random(alphabet), strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12]))
}

func (g *IDGenerator) render(now time.Time, random, uid string) string {
	switch g.format {
	case IDFormatNumeric:
		secs := strconv.FormatInt(now.Unix(), 10)
		if len(secs) > 6 {
			secs = secs[len(secs)-6:]
		}
		return g.prefix + random + secs
	case IDFormatCustom:
		return strings.NewReplacer(
			"{PREFIX}", g.prefix,
			"{RANDOM}", random,
			"{TIME}", strings.ToUpper(strconv.FormatInt(now.Unix(), 36)),
			"{DATE}", now.Format("20060102"),
			"{UUID}", uid,
		).Replace(g.template)
	default:
		return g.prefix + random + strings.ToUpper(strconv.FormatInt(now.Unix(), 36))
	}
}

func (g *IDGenerator) random(alphabet string) string {
	var b strings.Builder
	b.Grow(randomLen)
	for i := 0; i < randomLen; i++ {
		b.WriteByte(alphabet[g.r.Intn(len(alphabet))])
	}
	return b.String()
}
