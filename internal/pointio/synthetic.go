package pointio

import "math/rand"

// Box is a rectangular obstacle dropped onto the synthetic ground plane.
type Box struct {
	CenterX float32
	CenterY float32
	SizeX   float32
	SizeY   float32
	SizeZ   float32 // height above ground level
	Points  int
}

// Scene generates synthetic point clouds: a rough ground plane plus
// box-shaped obstacles. Rendering is deterministic for a given Seed, so
// fixtures and demos can replay the same cloud.
type Scene struct {
	Seed         int64
	Stride       int        // floats per point (default: 4)
	GroundPoints int        // samples across the plane (default: 8000)
	Bounds       [4]float32 // plane extent xmin, ymin, xmax, ymax
	GroundLevel  float32    // metres (default: -1.6)
	GroundJitter float32    // +/- metres of surface roughness (default: 0.05)
	Boxes        []Box
}

// NewScene returns a car-scale street scene over the default capture
// range: ground plane plus a car, a pedestrian and a truck.
func NewScene(seed int64) *Scene {
	return &Scene{
		Seed:         seed,
		Stride:       4,
		GroundPoints: 8000,
		Bounds:       [4]float32{0, -40, 70.4, 40},
		GroundLevel:  -1.6,
		GroundJitter: 0.05,
		Boxes: []Box{
			{CenterX: 12, CenterY: -3, SizeX: 4.5, SizeY: 1.8, SizeZ: 1.5, Points: 900},
			{CenterX: 25, CenterY: 6, SizeX: 0.6, SizeY: 0.6, SizeZ: 1.7, Points: 300},
			{CenterX: 40, CenterY: -10, SizeX: 8, SizeY: 2.5, SizeZ: 3.2, Points: 1400},
		},
	}
}

// Cloud renders the scene into a flat buffer of Stride floats per
// record: xyz, an intensity channel when the stride allows, zeros for
// any further channels. Repeated calls return the same cloud.
func (s *Scene) Cloud() []float32 {
	rng := rand.New(rand.NewSource(s.Seed))
	total := s.GroundPoints
	for _, b := range s.Boxes {
		total += b.Points
	}
	points := make([]float32, 0, total*s.Stride)

	for i := 0; i < s.GroundPoints; i++ {
		x := s.Bounds[0] + rng.Float32()*(s.Bounds[2]-s.Bounds[0])
		y := s.Bounds[1] + rng.Float32()*(s.Bounds[3]-s.Bounds[1])
		z := s.GroundLevel + (rng.Float32()*2-1)*s.GroundJitter
		points = s.appendPoint(points, rng, x, y, z, 30)
	}
	for _, b := range s.Boxes {
		for i := 0; i < b.Points; i++ {
			x := b.CenterX + (rng.Float32()-0.5)*b.SizeX
			y := b.CenterY + (rng.Float32()-0.5)*b.SizeY
			z := s.GroundLevel + rng.Float32()*b.SizeZ
			points = s.appendPoint(points, rng, x, y, z, 120)
		}
	}
	return points
}

func (s *Scene) appendPoint(points []float32, rng *rand.Rand, x, y, z, intensity float32) []float32 {
	points = append(points, x, y, z)
	for c := 3; c < s.Stride; c++ {
		if c == 3 {
			points = append(points, intensity+rng.Float32()*20)
			continue
		}
		points = append(points, 0)
	}
	return points
}
