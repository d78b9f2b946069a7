package zones

// Series returns parallel density and attribute-mean values for zones,
// in the order given.
func Series(zones []*Zone, attribute string) (density, mean []float64, err error) {
	density = make([]float64, len(zones))
	mean = make([]float64, len(zones))
	for i, z := range zones {
		density[i] = z.Density()
		if mean[i], err = z.AttributeMean(attribute); err != nil {
			return nil, nil, err
		}
	}
	return density, mean, nil
}
