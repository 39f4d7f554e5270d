package record

import (
	"fmt"
	"math/rand"

	"github.com/go-faker/faker/v4"
)

var majors = []string{"CS", "CE", "EE", "MATH", "PHYS", "BIO"}

// Fake returns a student filled with generated data, for seeding demo databases.
func Fake(rnd *rand.Rand) *Student {
	return &Student{
		ID:        fmt.Sprintf("%09d", rnd.Intn(1_000_000_000)),
		LastName:  faker.LastName(),
		FirstName: faker.FirstName(),
		Year:      fmt.Sprintf("%d", 1+rnd.Intn(4)),
		Major:     majors[rnd.Intn(len(majors))],
		Email:     faker.Email(),
	}
}
