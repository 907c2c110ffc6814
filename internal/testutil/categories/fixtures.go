package categories

// Fixture is a predefined category tree.
type Fixture interface {
	Name() string
	Entries() []Entry
}

type fixture struct {
	name    string
	entries []Entry
}

func (f *fixture) Name() string     { return f.name }
func (f *fixture) Entries() []Entry { return f.entries }

var (
	// FixtureBasic is a two level tree with one grandchild.
	FixtureBasic = &fixture{
		name: "Basic",
		entries: []Entry{
			{Name: CategoryFood},
			{Name: CategoryGroceries, Parent: CategoryFood},
			{Name: CategoryDining, Parent: CategoryFood},
			{Name: CategoryCoffee, Parent: CategoryDining},
			{Name: CategoryTransportation},
		},
	}

	// FixtureHousehold covers the usual monthly spending areas.
	FixtureHousehold = &fixture{
		name: "Household",
		entries: []Entry{
			{Name: CategoryFood},
			{Name: CategoryGroceries, Parent: CategoryFood},
			{Name: CategoryTransportation},
			{Name: CategoryFuel, Parent: CategoryTransportation},
			{Name: CategoryHousing},
			{Name: CategoryUtilities, Parent: CategoryHousing},
			{Name: CategoryEntertainment},
		},
	}
)
