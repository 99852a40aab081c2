package driver

import "context"

// SeedDemoDrivers loads a couple of drivers into an in-memory store so the
// service is exercisable without the surrounding application.
func SeedDemoDrivers(store *MemoryStore) []*Driver {
	drivers := []*Driver{
		{
			ID:               "drv-1001",
			Code:             "DRV-LAG-1001",
			FullName:         "Adaeze Okafor",
			Phone:            "+2348012345678",
			Address:          "14 Marina Road, Lagos",
			DateOfBirth:      "1991-04-12",
			ClaimedNIN:       "NIN12345678",
			ClaimedLicenseNo: "LAG-DL-55521",
			PhotoRef:         "photos/drv-1001.jpg",
			Active:           true,
			Status:           StatusUnverified,
		},
		{
			ID:               "drv-1002",
			Code:             "DRV-ABJ-1002",
			FullName:         "Musa Bello",
			Phone:            "+2348098765432",
			Address:          "3 Gwarinpa Estate, Abuja",
			DateOfBirth:      "1988-11-02",
			ClaimedNIN:       "NIN87654321",
			ClaimedLicenseNo: "ABJ-DL-90210",
			PhotoRef:         "photos/drv-1002.jpg",
			Active:           true,
			Status:           StatusUnverified,
		},
	}
	for _, d := range drivers {
		_ = store.Save(context.Background(), d)
	}
	return drivers
}
