package metrics

import "github.com/san-kum/spacesim/internal/dynamo"

// Population is the mean number of live bodies per tick.
type Population struct {
	name    string
	total   int
	samples int
}

func NewPopulation() *Population {
	return &Population{name: "population"}
}

func (p *Population) Name() string { return p.name }

func (p *Population) Observe(r *dynamo.TickResult) {
	p.total += r.Frame.Len()
	p.samples++
}

func (p *Population) Value() float64 {
	if p.samples == 0 {
		return 0
	}
	return float64(p.total) / float64(p.samples)
}

func (p *Population) Reset() {
	p.total = 0
	p.samples = 0
}

// Contacts counts resolved contacts over the run.
type Contacts struct {
	name  string
	count int
}

func NewContacts() *Contacts {
	return &Contacts{name: "contacts"}
}

func (c *Contacts) Name() string { return c.name }

func (c *Contacts) Observe(r *dynamo.TickResult) { c.count += len(r.Contacts) }

func (c *Contacts) Value() float64 { return float64(c.count) }

func (c *Contacts) Reset() { c.count = 0 }

// Dropped counts requests that failed when applied.
type Dropped struct {
	name  string
	count int
}

func NewDropped() *Dropped {
	return &Dropped{name: "dropped_requests"}
}

func (d *Dropped) Name() string { return d.name }

func (d *Dropped) Observe(r *dynamo.TickResult) { d.count += len(r.Errors) }

func (d *Dropped) Value() float64 { return float64(d.count) }

func (d *Dropped) Reset() { d.count = 0 }
