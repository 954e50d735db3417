//
// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package dpengine

import (
	"github.com/google/differential-privacy/privacycore/checks"
	"gonum.org/v1/gonum/floats"
)

// L2Norm returns the Euclidean norm of v.
func L2Norm(v []float64) float64 {
	return floats.Norm(v, 2)
}

// Clip bounds the L2 norm of update by clipNorm. If ‖update‖₂ > clipNorm the
// update is rescaled by clipNorm/‖update‖₂, otherwise it is returned
// unchanged. The result is always a fresh slice.
func Clip(update []float64, clipNorm float64) ([]float64, error) {
	if err := checks.CheckClipNorm("Clip", clipNorm); err != nil {
		return nil, err
	}
	if err := checks.CheckVector("Clip", update); err != nil {
		return nil, err
	}
	return clip(update, clipNorm), nil
}

func clip(update []float64, clipNorm float64) []float64 {
	out := make([]float64, len(update))
	copy(out, update)
	if norm := L2Norm(update); norm > clipNorm {
		floats.Scale(clipNorm/norm, out)
	}
	return out
}
