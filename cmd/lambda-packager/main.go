package main

import "github.com/arm-dev024/api-samnilabs/cmd/lambda-packager/cmd"

func main() {
	cmd.Execute()
}
