package alignment_test

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/highwaype/highwaype/pkg/alignment"
)

func ExampleAlignment_At() {
	al, err := alignment.New([]alignment.Vertex{
		{Point: orb.Point{0, 0}},
		{Point: orb.Point{100, 0}},
		{Point: orb.Point{100, 100}},
	}, false)
	if err != nil {
		panic(err)
	}
	f, err := al.At(150)
	if err != nil {
		panic(err)
	}
	fmt.Printf("length %.0f\n", al.Length())
	fmt.Printf("point (%.1f, %.1f) heading %.0f deg\n", f.Point[0], f.Point[1], f.Tangent*180/math.Pi)
	// Output:
	// length 200
	// point (100.0, 50.0) heading 90 deg
}

func ExampleAlignment_Project() {
	al, err := alignment.New([]alignment.Vertex{
		{Point: orb.Point{0, 0}},
		{Point: orb.Point{100, 0}},
	}, false)
	if err != nil {
		panic(err)
	}
	p := al.Project(orb.Point{50, 10})
	fmt.Printf("%.1f %.1f %s\n", p.Distance, p.Offset, p.Side)
	// Output:
	// 50.0 10.0 left
}
