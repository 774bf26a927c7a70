package demo

import "time"

// Seed is the fixture data the collections are initialized from at startup
// and restored to on demo reset.
type Seed struct {
	Owners   []Owner
	Patients []Patient
	Cases    []Case
}

// DefaultSeed builds the demo clinic: three owners, their pets, and three
// open cases spread across the triage levels, with creation times offset
// from now so the queue shows realistic waits. Vitals missing from a fixture
// fall back to DefaultVitals.
func DefaultSeed(now time.Time) Seed {
	owners := []Owner{
		{
			ID:        "owner-seed-1",
			FirstName: "Sarah",
			LastName:  "Mitchell",
			Name:      "Sarah Mitchell",
			Phone:     "555-0142",
			Email:     "sarah.mitchell@example.com",
			Address:   "18 Alder Grove",
			CreatedAt: now.Add(-90 * time.Minute),
		},
		{
			ID:               "owner-seed-2",
			FirstName:        "James",
			LastName:         "Okafor",
			Name:             "James Okafor",
			Phone:            "555-0177",
			AltPhone:         "555-0178",
			Address:          "204 Birchwood Lane",
			EmergencyContact: "Ada Okafor 555-0179",
			CreatedAt:        now.Add(-60 * time.Minute),
		},
		{
			ID:        "owner-seed-3",
			FirstName: "Priya",
			LastName:  "Raman",
			Name:      "Priya Raman",
			Phone:     "555-0119",
			Email:     "priya.r@example.com",
			CreatedAt: now.Add(-35 * time.Minute),
		},
	}

	patients := []Patient{
		{
			ID:             "patient-seed-1",
			Name:           "Biscuit",
			Species:        SpeciesDog,
			Breed:          "Labrador Retriever",
			Age:            7,
			Weight:         31.4,
			OwnerID:        "owner-seed-1",
			MedicalHistory: []string{"Cruciate ligament repair 2023"},
			Allergies:      []string{"Chicken"},
			Medications:    []string{"Carprofen 75mg daily"},
		},
		{
			ID:          "patient-seed-2",
			Name:        "Smoke",
			Species:     SpeciesCat,
			Breed:       "Domestic Shorthair",
			Age:         3,
			Weight:      4.8,
			OwnerID:     "owner-seed-2",
			MicrochipID: "985112004573821",
		},
		{
			ID:      "patient-seed-3",
			Name:    "Clover",
			Species: SpeciesOther,
			Breed:   "Holland Lop",
			Age:     2,
			Weight:  1.6,
			OwnerID: "owner-seed-3",
		},
	}

	painSevere := 8

	cases := []Case{
		{
			ID:             "case-seed-1",
			PatientID:      "patient-seed-1",
			PetName:        "Biscuit",
			OwnerName:      "Sarah Mitchell",
			OwnerPhone:     "555-0142",
			Species:        SpeciesDog,
			TriageLevel:    TriageRed,
			Status:         StatusWaiting,
			ChiefComplaint: "Collapsed after vomiting, distended abdomen",
			Vitals: Vitals{
				Temperature:         39.8,
				HeartRate:           168,
				RespiratoryRate:     42,
				Weight:              31.4,
				MucousMembraneColor: "Pale",
				CapillaryRefillTime: "> 3 sec",
				PainScale:           &painSevere,
			},
			CreatedAt: now.Add(-22 * time.Minute),
		},
		{
			ID:             "case-seed-2",
			PatientID:      "patient-seed-2",
			PetName:        "Smoke",
			OwnerName:      "James Okafor",
			OwnerPhone:     "555-0177",
			Species:        SpeciesCat,
			TriageLevel:    TriageYellow,
			Status:         StatusWaiting,
			ChiefComplaint: "Straining in the litter box since this morning",
			Vitals: Vitals{
				Temperature:         38.9,
				HeartRate:           190,
				RespiratoryRate:     32,
				Weight:              4.8,
				MucousMembraneColor: "Pink",
				CapillaryRefillTime: "< 2 sec",
			},
			CreatedAt: now.Add(-14 * time.Minute),
		},
		{
			ID:             "case-seed-3",
			PatientID:      "patient-seed-3",
			PetName:        "Clover",
			OwnerName:      "Priya Raman",
			OwnerPhone:     "555-0119",
			Species:        SpeciesOther,
			TriageLevel:    TriageGreen,
			Status:         StatusWaiting,
			ChiefComplaint: "Reduced appetite, droppings smaller than usual",
			Vitals:         DefaultVitals(),
			CreatedAt:      now.Add(-6 * time.Minute),
		},
	}

	for i := range cases {
		cases[i].WaitTime = waitMinutes(cases[i], now)
	}

	return Seed{Owners: owners, Patients: patients, Cases: cases}
}
