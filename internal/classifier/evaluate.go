package classifier

// holdoutEvery puts every fifth sample in the test split (80/20).
const holdoutEvery = 5

// minEvalSamples is the smallest corpus worth a hold-out evaluation.
const minEvalSamples = 10

// evaluate trains a throwaway model on 80% of the samples and scores it on
// the rest. The split is deterministic so repeated training reports the same
// numbers for the same data. Returns nil when the split cannot be trained.
func evaluate(samples []sample) *Metrics {
	if len(samples) < minEvalSamples {
		return nil
	}

	var trainSet, testSet []sample
	for i, s := range samples {
		if i%holdoutEvery == holdoutEvery-1 {
			testSet = append(testSet, s)
		} else {
			trainSet = append(trainSet, s)
		}
	}
	classes := labels(trainSet)
	if len(classes) < minClasses || len(testSet) == 0 {
		return nil
	}

	cl := train(trainSet, classes)
	actual := make([]string, len(testSet))
	predicted := make([]string, len(testSet))
	for i, s := range testSet {
		actual[i] = s.label
		predicted[i] = predict(cl, s.terms)
	}
	return score(actual, predicted)
}

// score computes accuracy and macro-averaged F1 over every label that occurs
// in either slice.
func score(actual, predicted []string) *Metrics {
	type counts struct{ tp, fp, fn int }
	per := make(map[string]*counts)
	get := func(l string) *counts {
		c, ok := per[l]
		if !ok {
			c = &counts{}
			per[l] = c
		}
		return c
	}

	correct := 0
	for i := range actual {
		a, p := actual[i], predicted[i]
		if a == p {
			correct++
			get(a).tp++
			continue
		}
		get(p).fp++
		get(a).fn++
	}

	var f1Sum float64
	for _, c := range per {
		denom := 2*c.tp + c.fp + c.fn
		if denom > 0 {
			f1Sum += float64(2*c.tp) / float64(denom)
		}
	}

	m := &Metrics{TestSamples: len(actual)}
	if len(actual) > 0 {
		m.Accuracy = float64(correct) / float64(len(actual))
	}
	if len(per) > 0 {
		m.F1Macro = f1Sum / float64(len(per))
	}
	return m
}
