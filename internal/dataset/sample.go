package dataset

import (
	"encoding/csv"
	"math"
	"math/rand"
	"os"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
)

// SampleTables generates n synthetic subjects and returns the four study
// datasets built from them. The same seed always yields the same tables.
func SampleTables(n int, seed int64) (map[Role]*Table, error) {
	s := DefaultSchema()
	rng := rand.New(rand.NewSource(seed))
	cols := map[Field][]float64{}
	numeric := []Field{FieldAge, FieldBMICode, FieldStress, FieldHeartRate, FieldDailySteps,
		FieldCaffeine, FieldScreenTime, FieldExercise, FieldSleepQuality, FieldProductivity, FieldMood}
	for _, f := range numeric {
		cols[f] = make([]float64, n)
	}
	gender := make([]string, n)
	ageCat := make([]string, n)
	bmiCat := make([]string, n)
	bmiNames := []string{"Normal", "Overweight", "Obese"}

	for i := 0; i < n; i++ {
		age := float64(18 + rng.Intn(48))
		code := rng.Intn(3)
		stress := float64(1 + rng.Intn(10))
		hr := math.Round(58 + 0.8*stress + rng.Float64()*20)
		steps := math.Round(3000 + rng.Float64()*9000)
		caffeine := math.Round(rng.Float64() * 300)
		screen := math.Round(rng.Float64() * 180)
		exercise := math.Round(rng.Float64() * 90)

		sq := 9.5 - 0.35*stress - 0.25*float64(code) - 0.02*(hr-60) + 0.00008*steps -
			0.000012*caffeine*screen + 0.00002*age*exercise + rng.NormFloat64()*0.6
		sq = math.Max(1, math.Min(10, math.Round(sq)))

		cols[FieldAge][i] = age
		cols[FieldBMICode][i] = float64(code)
		cols[FieldStress][i] = stress
		cols[FieldHeartRate][i] = hr
		cols[FieldDailySteps][i] = steps
		cols[FieldCaffeine][i] = caffeine
		cols[FieldScreenTime][i] = screen
		cols[FieldExercise][i] = exercise
		cols[FieldSleepQuality][i] = sq
		cols[FieldProductivity][i] = math.Max(1, math.Min(10, math.Round(2+0.7*sq+rng.NormFloat64())))
		cols[FieldMood][i] = math.Max(1, math.Min(10, math.Round(3+0.5*sq+rng.NormFloat64())))

		gender[i] = []string{"Male", "Female"}[rng.Intn(2)]
		bmiCat[i] = bmiNames[code]
		switch {
		case age < 30:
			ageCat[i] = "Young Adult"
		case age < 45:
			ageCat[i] = "Adult"
		default:
			ageCat[i] = "Middle Aged"
		}
	}

	num := func(f Field) *Column {
		if s.Kind(f) == KindOrdinal {
			return NewOrdinalColumn(s.Column(f), cols[f])
		}
		return NewNumericColumn(s.Column(f), cols[f])
	}
	cat := func(f Field, v []string) *Column { return NewCategoricalColumn(s.Column(f), v) }

	layouts := map[Role][]*Column{
		RoleSleepProductivity: {num(FieldAge), cat(FieldGender, gender), num(FieldCaffeine), num(FieldScreenTime),
			num(FieldExercise), num(FieldStress), num(FieldSleepQuality), num(FieldProductivity), num(FieldMood)},
		RoleSleepHealth: {cat(FieldGender, gender), num(FieldAge), cat(FieldBMICategory, bmiCat), num(FieldStress),
			num(FieldHeartRate), num(FieldDailySteps), num(FieldSleepQuality)},
		RoleMerged: {num(FieldAge), cat(FieldGender, gender), cat(FieldAgeCategory, ageCat), cat(FieldBMICategory, bmiCat),
			num(FieldBMICode), num(FieldStress), num(FieldHeartRate), num(FieldDailySteps), num(FieldCaffeine),
			num(FieldScreenTime), num(FieldExercise), num(FieldSleepQuality), num(FieldProductivity), num(FieldMood)},
		RoleCleaned: {num(FieldBMICode), num(FieldStress), num(FieldHeartRate), num(FieldDailySteps), num(FieldSleepQuality)},
	}
	out := make(map[Role]*Table, len(layouts))
	for role, cs := range layouts {
		t, err := NewTable(string(role), cs...)
		if err != nil {
			return nil, err
		}
		out[role] = t
	}
	return out, nil
}

// WriteCSV writes t with a header row. Missing values are written as empty cells.
func WriteCSV(t *Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(t.Columns()); err != nil {
		return eris.Wrap(err, "write header")
	}
	cols := make([]*Column, 0, len(t.Columns()))
	for _, name := range t.Columns() {
		c, _ := t.Column(name)
		cols = append(cols, c)
	}
	rec := make([]string, len(cols))
	for i := 0; i < t.Rows(); i++ {
		for j, c := range cols {
			rec[j] = c.Text(i)
		}
		if err := w.Write(rec); err != nil {
			return eris.Wrapf(err, "write row %d", i+1)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "flush csv")
	}
	return f.Close()
}

// WriteXLSX writes t to the first sheet of a new workbook. Numeric cells are
// stored as numbers and missing values are left blank.
func WriteXLSX(t *Table, path string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	header := make([]any, 0, len(t.Columns()))
	cols := make([]*Column, 0, len(t.Columns()))
	for _, name := range t.Columns() {
		c, _ := t.Column(name)
		cols = append(cols, c)
		header = append(header, name)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return eris.Wrap(err, "write header")
	}
	row := make([]any, len(cols))
	for i := 0; i < t.Rows(); i++ {
		for j, c := range cols {
			switch {
			case c.IsMissing(i):
				row[j] = nil
			case c.Kind.IsNumeric():
				row[j] = c.Float(i)
			default:
				row[j] = c.Text(i)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return eris.Wrap(err, "cell name")
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return eris.Wrapf(err, "write row %d", i+1)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return eris.Wrapf(err, "save %s", path)
	}
	return nil
}
