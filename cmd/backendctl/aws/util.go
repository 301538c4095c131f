// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package aws

import (
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go/aws/awserr"
)

func IsNotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case "ParameterNotFound", "NotFound", "ResourceNotFoundException":
			return true
		case "ValidationError":
			return strings.Contains(aerr.Message(), "does not exist")
		}
	}
	return false
}
