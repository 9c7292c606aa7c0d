package dynamo_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/spacesim/internal/dynamo"
	"github.com/san-kum/spacesim/internal/registry"
	"github.com/san-kum/spacesim/internal/vmath"
)

var _ = Describe("Simulator", func() {
	var sim *dynamo.Simulator

	BeforeEach(func() {
		var err error
		sim, err = dynamo.New(dynamo.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = sim.Close() })
	})

	spawn := func(p registry.Params) registry.ID {
		id, err := sim.Spawn(p)
		Expect(err).NotTo(HaveOccurred())
		return id
	}

	tick := func() *dynamo.TickResult {
		res, err := sim.Tick()
		Expect(err).NotTo(HaveOccurred())
		return res
	}

	Describe("head-on approach", func() {
		var a, b registry.ID

		BeforeEach(func() {
			base := registry.Params{Size: 10, Proximity: 20, Lifetime: 5, Bounce: 0.5}
			pa := base
			pb := base
			pb.Position = vmath.Vec2{X: 15}
			pb.Velocity = vmath.Vec2{X: -1}
			a = spawn(pa)
			b = spawn(pb)
		})

		It("reverses and halves the relative velocity on contact", func() {
			res := tick()
			Expect(res.Contacts).To(HaveLen(1))

			ba, ok := res.Frame.Find(a)
			Expect(ok).To(BeTrue())
			bb, ok := res.Frame.Find(b)
			Expect(ok).To(BeTrue())

			before := 0.0 - (-1.0)
			after := ba.Velocity.X - bb.Velocity.X
			Expect(after).To(BeNumerically("~", -before/2, 1e-9))
			Expect(ba.Velocity.Y).To(BeZero())
			Expect(bb.Velocity.Y).To(BeZero())
		})

		It("conserves momentum through the bounce", func() {
			res := tick()
			Expect(res.Frame.Momentum().X).To(BeNumerically("~", -1, 1e-9))
		})

		It("pushes the pair out of overlap", func() {
			res := tick()
			ba, _ := res.Frame.Find(a)
			bb, _ := res.Frame.Find(b)
			Expect(ba.Position.Dist(bb.Position)).To(BeNumerically(">=", 20-1e-9))
		})

		It("raises proximity events for both bodies", func() {
			res := tick()
			subjects := make([]registry.ID, 0, len(res.Proximity))
			for _, ev := range res.Proximity {
				subjects = append(subjects, ev.Subject)
			}
			Expect(subjects).To(ConsistOf(a, b))
		})

		It("exports records with decayed lifetimes in id order", func() {
			res := tick()
			Expect(res.Records.IDs()).To(Equal([]int16{int16(a), int16(b)}))
			for _, rec := range res.Records.Current {
				Expect(rec.Lifetime).To(Equal(int32(4)))
				Expect(rec.Size).To(Equal(int32(10)))
				Expect(rec.Proximity).To(Equal(int32(20)))
				Expect(rec.BounceCoefficient).To(Equal(float32(0.5)))
			}
		})

		It("drops both bodies once their lifetime runs out", func() {
			res, err := sim.Run(context.Background(), 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Final.Len()).To(BeZero())
			Expect(res.Ticks[3].Bodies).To(Equal(2))
			Expect(res.Ticks[4].Expired).To(Equal(2))
		})
	})

	Describe("restitution", func() {
		collide := func(bounce float64) (vmath.Vec2, vmath.Vec2, *dynamo.TickResult) {
			a := spawn(registry.Params{Size: 5, Lifetime: 10, Bounce: bounce, Velocity: vmath.Vec2{X: 2, Y: 1}})
			b := spawn(registry.Params{Size: 5, Lifetime: 10, Bounce: bounce, Position: vmath.Vec2{X: 11}, Velocity: vmath.Vec2{X: -1}})
			res := tick()
			ba, _ := res.Frame.Find(a)
			bb, _ := res.Frame.Find(b)
			return ba.Velocity, bb.Velocity, res
		}

		It("conserves momentum and energy when bounce is 1", func() {
			va, vb, res := collide(1)
			Expect(res.Contacts).To(HaveLen(1))
			Expect(va.X + vb.X).To(BeNumerically("~", 1, 1e-9))
			Expect(va.Y + vb.Y).To(BeNumerically("~", 1, 1e-9))
			Expect(res.Frame.KineticEnergy()).To(BeNumerically("~", 0.5*5+0.5*1, 1e-9))
		})

		It("leaves no relative normal velocity when bounce is 0", func() {
			va, vb, res := collide(0)
			n := res.Contacts[0].Normal
			Expect(va.Sub(vb).Dot(n)).To(BeNumerically("~", 0, 1e-9))
		})

		It("scales each body by its own coefficient", func() {
			a := spawn(registry.Params{Size: 5, Lifetime: 10, Bounce: 1, Velocity: vmath.Vec2{X: 1}})
			b := spawn(registry.Params{Size: 5, Lifetime: 10, Bounce: 0, Position: vmath.Vec2{X: 11}, Velocity: vmath.Vec2{X: -1}})
			res := tick()
			Expect(res.Contacts).To(HaveLen(1))
			ba, _ := res.Frame.Find(a)
			bb, _ := res.Frame.Find(b)
			Expect(ba.Velocity.X).To(BeNumerically("~", -1, 1e-9))
			Expect(bb.Velocity.X).To(BeNumerically("~", 0, 1e-9))
		})
	})

	Describe("lifetime", func() {
		It("removes a lifetime-1 body after one tick", func() {
			id := spawn(registry.Params{Size: 1, Lifetime: 1})
			res := tick()
			Expect(res.Expired).To(ConsistOf(id))
			Expect(res.Frame.Len()).To(BeZero())
		})

		It("rejects a body spawned with no lifetime", func() {
			_, err := sim.Spawn(registry.Params{Size: 1, Lifetime: 0})
			Expect(err).To(MatchError(dynamo.ErrInvalidParameter))
		})
	})

	Describe("requests", func() {
		It("treats a second removal as not found without touching state", func() {
			id := spawn(registry.Params{Size: 1, Lifetime: 10})
			keep := spawn(registry.Params{Size: 1, Lifetime: 10, Position: vmath.Vec2{X: 50}})
			tick()

			Expect(sim.RequestRemoval(id)).To(Succeed())
			Expect(sim.RequestRemoval(id)).To(MatchError(dynamo.ErrNotFound))
			Expect(sim.Pending()).To(Equal(1))

			res := tick()
			Expect(res.Records.IDs()).To(Equal([]int16{int16(keep)}))
		})

		It("rejects ownership transfer of an unknown id", func() {
			id := spawn(registry.Params{Size: 1, Lifetime: 10, Owner: 4})
			before := tick().Frame.Checksum()

			Expect(sim.RequestOwnershipTransfer(id+100, 9)).To(MatchError(dynamo.ErrNotFound))
			Expect(sim.Pending()).To(BeZero())
			Expect(sim.Rewind(1)).To(Succeed())
			Expect(sim.Latest().Checksum()).To(Equal(before))
		})

		It("never hands out an id twice", func() {
			seen := map[registry.ID]bool{}
			for i := 0; i < 50; i++ {
				id := spawn(registry.Params{Size: 1, Lifetime: 1, Position: vmath.Vec2{X: float64(i) * 5}})
				Expect(seen).NotTo(HaveKey(id))
				seen[id] = true
				if i%10 == 9 {
					tick()
				}
			}
		})
	})
})
