package station_test

import (
	"fmt"

	"github.com/highwaype/highwaype/pkg/station"
)

func ExampleFormat() {
	fmt.Println(station.Format(12345.678, 3))
	fmt.Println(station.Format(1999.9996, 3))
	fmt.Println(station.Format(-12, 0))
	// Output:
	// K12+345.678
	// K2+000.000
	// -K0+012
}

func ExampleParse() {
	for _, s := range []string{"K12+345.6", "k0 + 500", "12345.6"} {
		v, err := station.Parse(s)
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Printf("%.1f\n", v)
	}
	// Output:
	// 12345.6
	// 500.0
	// 12345.6
}
