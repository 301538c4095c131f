// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/epam/backendctl/cmd/backendctl/backend"
	"github.com/epam/backendctl/cmd/backendctl/config"
	"github.com/epam/backendctl/cmd/backendctl/secret"
	"github.com/epam/backendctl/cmd/backendctl/util"
)

var secretCmd = &cobra.Command{
	Use:   "secret <set | get | list | remove> ...",
	Short: "Manage sandbox secrets",
	Long: `Manage sandbox secrets stored in AWS SSM Parameter Store as SecureString
parameters under /amplify/<backend id>/sandbox/<name>.

Updated secrets are picked up by the next sandbox deployment.`,
}

var setSecretCmd = &cobra.Command{
	Use:   "set <name> [<value> | -]",
	Short: "Set sandbox secret value",
	Long:  `Set sandbox secret value. If value is omitted or "-" then it is read from stdin.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setSecret(cmd, args)
	},
}

var getSecretCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print sandbox secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getSecret(cmd, args[0])
	},
}

var listSecretsCmd = &cobra.Command{
	Use:   "list",
	Short: "List sandbox secrets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listSecrets(cmd)
	},
}

var removeSecretCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove sandbox secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return removeSecret(cmd, args[0])
	},
}

func secretClient() (secret.Client, *backend.BackendIdentifier, error) {
	id, err := resolveSandboxIdentifier()
	if err != nil {
		return nil, nil, err
	}
	client, err := secret.NewDefaultClient(config.AwsRegion)
	if err != nil {
		return nil, nil, err
	}
	return client, id, nil
}

func readSecretValue(args []string, stdin io.Reader) (string, error) {
	if len(args) > 1 && args[1] != "-" {
		return args[1], nil
	}
	bytes, err := io.ReadAll(stdin)
	value := strings.TrimRight(string(bytes), "\r\n")
	if err != nil || value == "" {
		return "", fmt.Errorf("Bad secret value read from stdin (read %d bytes): %s",
			len(bytes), util.Errors("; ", err))
	}
	return value, nil
}

func setSecret(cmd *cobra.Command, args []string) error {
	value, err := readSecretValue(args, os.Stdin)
	if err != nil {
		return err
	}
	if config.Debug {
		log.Printf("Setting secret `%s` to %s", args[0], util.MaskedValue(config.Trace, value))
	}
	client, id, err := secretClient()
	if err != nil {
		return err
	}
	s, err := client.Set(cmd.Context(), id, args[0], value)
	if err != nil {
		return err
	}
	if config.Verbose {
		log.Printf("Secret `%s` set, version %d; redeploy the sandbox to pick it up", s.Name, s.Version)
	}
	return nil
}

func getSecret(cmd *cobra.Command, name string) error {
	client, id, err := secretClient()
	if err != nil {
		return err
	}
	s, err := client.Get(cmd.Context(), id, name)
	if err != nil {
		return err
	}
	return printYaml(cmd.OutOrStdout(), s)
}

func listSecrets(cmd *cobra.Command) error {
	client, id, err := secretClient()
	if err != nil {
		return err
	}
	secrets, err := client.List(cmd.Context(), id)
	if err != nil {
		return err
	}
	if config.Verbose {
		log.Printf("%s under %s", util.Plural(len(secrets), "secret"), secret.Path(id))
	}
	if len(secrets) == 0 {
		return nil
	}
	return printYaml(cmd.OutOrStdout(), secrets)
}

func removeSecret(cmd *cobra.Command, name string) error {
	client, id, err := secretClient()
	if err != nil {
		return err
	}
	err = client.Remove(cmd.Context(), id, name)
	var notFound *secret.NotFoundError
	if errors.As(err, &notFound) {
		util.Warn("%v", err)
		return nil
	}
	return err
}

func printYaml(w io.Writer, value interface{}) error {
	bytes, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("Unable to marshal into YAML: %v", err)
	}
	_, err = w.Write(bytes)
	return err
}

func init() {
	secretCmd.AddCommand(setSecretCmd)
	secretCmd.AddCommand(getSecretCmd)
	secretCmd.AddCommand(listSecretsCmd)
	secretCmd.AddCommand(removeSecretCmd)
	sandboxCmd.AddCommand(secretCmd)
}
