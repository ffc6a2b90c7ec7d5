package feeds

// Speeds are in m/min. Sources:
//   - littlemachineshop.com/reference/cuttingspeeds.php
//   - bekas.sk/files/pdfs/44.pdf
//   - easyspeedsandfeeds.com
//   - machiningdoctor.com (carbide tables)
// Power factors are from Machinery's Handbook 29 (2012) pp1083-1084.
// Entries marked "guess" have no source yet.

func hssCarbide(hssDiv float64, hss map[Operation]SpeedEntry,
	carbideDiv float64, carbide map[Operation]SpeedEntry) map[ToolMaterial]Cutting {
	return map[ToolMaterial]Cutting{
		HSS:     {ChiploadDivisor: hssDiv, Speeds: hss},
		Carbide: {ChiploadDivisor: carbideDiv, Speeds: carbide},
	}
}

func builtinMaterials() []Material {
	return []Material{
		{
			Key:         "Aluminium6061",
			Name:        "Aluminium Alloy (e.g. 6061)",
			PowerFactor: 0.33 * MetricPowerFactor,
			Cutting: hssCarbide(160, map[Operation]SpeedEntry{
				Milling:  Explicit(152, 182),
				Slotting: DeriveFromMilling(),
				Drilling: Explicit(106, 122),
			}, 80, map[Operation]SpeedEntry{
				Milling:  Explicit(640, 865),
				Slotting: Explicit(425, 575),
				Drilling: Explicit(215, 290),
			}),
		},
		{
			Key:         "Aluminium7075",
			Name:        "Aluminium Alloy (7075)",
			PowerFactor: 0.33 * MetricPowerFactor,
			Cutting: hssCarbide(160, map[Operation]SpeedEntry{
				Milling:  Explicit(60, 300),
				Slotting: DeriveFromMilling(),
				Drilling: Explicit(106, 122),
			}, 80, map[Operation]SpeedEntry{
				Milling:  Explicit(400, 545),
				Slotting: Explicit(270, 360),
				Drilling: Explicit(135, 180),
			}),
		},
		{
			Key:         "CopperAlloy",
			Name:        "Copper Alloy",
			PowerFactor: 0.80 * MetricPowerFactor,
			Cutting: hssCarbide(160, map[Operation]SpeedEntry{
				Milling:  Explicit(60, 300),
				Slotting: DeriveFromMilling(),
				Drilling: Explicit(24, 60),
			}, 80, map[Operation]SpeedEntry{
				Milling:  Explicit(280, 555),
				Slotting: Explicit(185, 370),
				Drilling: Explicit(95, 185),
			}),
		},
		{
			Key:         "Iron",
			Name:        "Iron",
			PowerFactor: 0.85 * MetricPowerFactor,
			Cutting: hssCarbide(200, map[Operation]SpeedEntry{
				Milling:  Explicit(60, 250),
				Slotting: DeriveFromMilling(),
				Drilling: Explicit(15, 30),
			}, 100, map[Operation]SpeedEntry{
				Milling:  Explicit(225, 305),
				Slotting: Explicit(230, 315),
				Drilling: Explicit(190, 255),
			}),
		},
		{
			Key:         "ToolSteel",
			Name:        "Tool Steel (640-670N/mm²)",
			PowerFactor: 1.0 * MetricPowerFactor,
			Cutting: hssCarbide(250, map[Operation]SpeedEntry{
				Milling:  Explicit(60, 100),
				Slotting: DeriveFromMilling(),
				Drilling: Explicit(7, 15),
			}, 300, map[Operation]SpeedEntry{
				Milling:  Explicit(95, 130),
				Slotting: Explicit(90, 120),
				Drilling: Explicit(65, 85),
			}),
		},
		{
			Key:         "LowCarbonSteel",
			Name:        "Low Carbon Steel (340-690N/mm²)",
			PowerFactor: 1.0 * MetricPowerFactor,
			Cutting: hssCarbide(250, map[Operation]SpeedEntry{
				Milling:  Explicit(60, 100),
				Slotting: DeriveFromMilling(),
				Drilling: Explicit(6, 18),
			}, 300, map[Operation]SpeedEntry{
				Milling:  Explicit(125, 170),
				Slotting: Explicit(115, 155),
				Drilling: Explicit(80, 110),
			}),
		},
		{
			Key:         "Stainless",
			Name:        "Stainless Steel",
			PowerFactor: 0.80 * MetricPowerFactor,
			Cutting: hssCarbide(200, map[Operation]SpeedEntry{
				Milling:  Explicit(60, 80),
				Slotting: DeriveFromMilling(),
				Drilling: Explicit(7, 15),
			}, 200, map[Operation]SpeedEntry{
				Milling:  Explicit(100, 135),
				Slotting: Explicit(95, 130),
				Drilling: Explicit(45, 60),
			}),
		},
		{
			Key:         "Titanium",
			Name:        "Titanium (900-1200N/mm²)",
			PowerFactor: 0.80 * MetricPowerFactor,
			Cutting: hssCarbide(200, map[Operation]SpeedEntry{
				Milling:  Explicit(5, 7),
				Slotting: DeriveFromMilling(),
				Drilling: Explicit(6, 15),
			}, 250, map[Operation]SpeedEntry{
				Milling:  Explicit(45, 60),
				Slotting: Explicit(50, 70),
				Drilling: Explicit(50, 70),
			}),
		},
		{
			Key:         "Plastic",
			Name:        "Plastic",
			PowerFactor: 0.20 * MetricPowerFactor,
			Cutting: hssCarbide(125, map[Operation]SpeedEntry{
				Milling:  Explicit(200, 300),
				Slotting: DeriveFromMilling(),
				Drilling: Explicit(100, 300), // guess
			}, 40, map[Operation]SpeedEntry{
				Milling:  Explicit(100, 1000), // guess
				Slotting: DeriveFromMilling(),
				Drilling: Explicit(100, 1000), // guess
			}),
		},
		{
			Key:         "Softwood",
			Name:        "Wood (soft)",
			PowerFactor: 0.20 * MetricPowerFactor,
			Cutting: hssCarbide(100, map[Operation]SpeedEntry{
				Milling:  Explicit(100, 1300), // guess
				Slotting: DeriveFromMilling(),
				Drilling: Explicit(100, 1000), // guess
			}, 80, map[Operation]SpeedEntry{
				Milling:  Explicit(100, 1300), // guess
				Slotting: DeriveFromMilling(),
				Drilling: Explicit(100, 1300), // guess
			}),
		},
		{
			// Divisors and power factor guessed from softwood.
			Key:         "Hardwood",
			Name:        "Hardwood",
			PowerFactor: 0.30 * MetricPowerFactor,
			Cutting: hssCarbide(100, map[Operation]SpeedEntry{
				Milling:  Explicit(100, 1300), // guess
				Slotting: DeriveFromMilling(),
				Drilling: Explicit(100, 1300), // guess
			}, 80, map[Operation]SpeedEntry{
				Milling:  Explicit(100, 1300), // guess
				Slotting: DeriveFromMilling(),
				Drilling: Explicit(100, 1300), // guess
			}),
		},
	}
}
