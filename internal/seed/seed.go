// Package seed carrega o catálogo embutido de labs no arranque.
// Os labs são read-only em runtime; o upsert é idempotente.
package seed

import (
	"context"
	"fmt"

	"aws-console-lab/internal/domain"
	"aws-console-lab/internal/service"

	"gorm.io/datatypes"
)

func rule(r domain.ValidationRule) datatypes.JSONType[domain.ValidationRule] {
	return datatypes.NewJSONType(r)
}

// Labs devolve o catálogo embutido.
func Labs() []*domain.Lab {
	return []*domain.Lab{
		ec2LaunchLab(),
		s3StaticSiteLab(),
		vpcNetworkLab(),
	}
}

// Run faz o upsert de todos os labs do catálogo.
func Run(ctx context.Context, repo service.SimulationRepository) error {
	for _, lab := range Labs() {
		if err := repo.UpsertLab(ctx, lab); err != nil {
			return fmt.Errorf("falha ao semear lab %s: %w", lab.ID, err)
		}
	}
	return nil
}

func ec2LaunchLab() *domain.Lab {
	return &domain.Lab{
		ID:          "lab-ec2-launch",
		Title:       "Launch your first EC2 instance",
		Description: "Walk through the EC2 console and launch a virtual machine with a name, AMI, instance type and security group.",
		Difficulty:  domain.DifficultyBeginner,
		Service:     "EC2",
		InitialState: datatypes.JSONMap{
			"vpc": []interface{}{
				map[string]interface{}{
					"vpcId":     "vpc-0default0000001",
					"name":      "default",
					"cidrBlock": "172.31.0.0/16",
					"state":     "available",
				},
			},
			"subnet": []interface{}{
				map[string]interface{}{
					"subnetId":         "subnet-0default000001",
					"vpcId":            "vpc-0default0000001",
					"cidrBlock":        "172.31.0.0/20",
					"availabilityZone": "us-east-1a",
				},
			},
			"securityGroup": []interface{}{
				map[string]interface{}{
					"groupId":     "sg-0default0000001",
					"groupName":   "default",
					"description": "default VPC security group",
				},
			},
		},
		Steps: []domain.Step{
			{
				ID:             "ec2-1-open-console",
				Title:          "Open the EC2 console",
				Description:    "Navigate to the EC2 service from the console home.",
				Order:          1,
				ExpectedAction: "NAVIGATE",
				Validation:     rule(domain.ValidationRule{Type: domain.ValidationURLContains, Value: "/ec2"}),
			},
			{
				ID:             "ec2-2-launch-wizard",
				Title:          "Start the launch wizard",
				Description:    "Click the Launch instance button.",
				Order:          2,
				ExpectedAction: "CLICK_LAUNCH_INSTANCE",
				Validation:     rule(domain.ValidationRule{Type: domain.ValidationClickButton}),
			},
			{
				ID:             "ec2-3-name-instance",
				Title:          "Name the instance",
				Description:    "Give the instance a name tag.",
				Order:          3,
				ExpectedAction: "ENTER_INSTANCE_NAME",
				Validation:     rule(domain.ValidationRule{Type: domain.ValidationFieldPresent, Field: "name"}),
			},
			{
				ID:             "ec2-4-select-ami",
				Title:          "Choose an AMI",
				Description:    "Pick the Amazon Linux 2023 machine image.",
				Order:          4,
				ExpectedAction: "SELECT_AMI",
				Validation:     rule(domain.ValidationRule{Type: domain.ValidationFieldPresent, Field: "ami", Value: "ami-0abcdef1234567890"}),
			},
			{
				ID:             "ec2-5-select-type",
				Title:          "Choose an instance type",
				Description:    "Pick the t2.micro free-tier instance type.",
				Order:          5,
				ExpectedAction: "SELECT_INSTANCE_TYPE",
				Validation:     rule(domain.ValidationRule{Type: domain.ValidationFieldPresent, Field: "instanceType", Value: "t2.micro"}),
			},
			{
				ID:             "ec2-6-security-group",
				Title:          "Review the security group",
				Description:    "Confirm the security group that will be attached.",
				Order:          6,
				ExpectedAction: domain.ActionGeneric,
				Validation:     rule(domain.ValidationRule{Type: domain.ValidationFieldPresent, Field: "securityGroup"}),
			},
			{
				ID:             "ec2-7-final-launch",
				Title:          "Launch the instance",
				Description:    "Click Launch instance to create the VM.",
				Order:          7,
				ExpectedAction: "CLICK_FINAL_LAUNCH",
				Validation:     rule(domain.ValidationRule{Type: domain.ValidationClickButton, ResourceType: domain.ResourceTypeEC2Instance}),
			},
		},
	}
}

func s3StaticSiteLab() *domain.Lab {
	return &domain.Lab{
		ID:          "lab-s3-static-site",
		Title:       "Host files in an S3 bucket",
		Description: "Create a bucket, upload an object and review versioning.",
		Difficulty:  domain.DifficultyBeginner,
		Service:     "S3",
		Steps: []domain.Step{
			{
				ID:             "s3-1-open-console",
				Title:          "Open the S3 console",
				Order:          1,
				ExpectedAction: "NAVIGATE",
				Validation:     rule(domain.ValidationRule{Type: domain.ValidationURLContains, Value: "/s3"}),
			},
			{
				ID:             "s3-2-create-wizard",
				Title:          "Start bucket creation",
				Order:          2,
				ExpectedAction: "CLICK_CREATE_BUCKET",
				Validation:     rule(domain.ValidationRule{Type: domain.ValidationClickButton}),
			},
			{
				ID:             "s3-3-create-bucket",
				Title:          "Create the bucket",
				Order:          3,
				ExpectedAction: "CREATE_BUCKET",
				Validation:     rule(domain.ValidationRule{Type: domain.ValidationFieldPresent, Field: "bucketName", ResourceType: domain.ResourceTypeS3Bucket}),
			},
			{
				ID:             "s3-4-upload-object",
				Title:          "Upload an object",
				Order:          4,
				ExpectedAction: "UPLOAD_OBJECT",
				Validation:     rule(domain.ValidationRule{Type: domain.ValidationFieldPresent, Field: "key"}),
			},
			{
				ID:             "s3-5-review-versioning",
				Title:          "Review bucket versioning",
				Order:          5,
				ExpectedAction: domain.ActionGeneric,
				Validation:     rule(domain.ValidationRule{Type: domain.ValidationClickButton}),
			},
		},
	}
}

func vpcNetworkLab() *domain.Lab {
	return &domain.Lab{
		ID:          "lab-vpc-network",
		Title:       "Build a VPC network",
		Description: "Create a VPC with a subnet and a security group.",
		Difficulty:  domain.DifficultyIntermediate,
		Service:     "VPC",
		Steps: []domain.Step{
			{
				ID:             "vpc-1-open-console",
				Title:          "Open the VPC console",
				Order:          1,
				ExpectedAction: "NAVIGATE",
				Validation:     rule(domain.ValidationRule{Type: domain.ValidationURLContains, Value: "/vpc"}),
			},
			{
				ID:             "vpc-2-create-vpc",
				Title:          "Create the VPC",
				Order:          2,
				ExpectedAction: "CREATE_VPC",
				Validation:     rule(domain.ValidationRule{Type: domain.ValidationFieldPresent, Field: "cidrBlock", ResourceType: domain.ResourceTypeVPC}),
			},
			{
				ID:             "vpc-3-create-subnet",
				Title:          "Create a subnet",
				Order:          3,
				ExpectedAction: "CREATE_SUBNET",
				Validation:     rule(domain.ValidationRule{Type: domain.ValidationFieldPresent, Field: "vpcId", ResourceType: domain.ResourceTypeSubnet}),
			},
			{
				ID:             "vpc-4-create-sg",
				Title:          "Create a security group",
				Order:          4,
				ExpectedAction: "CREATE_SECURITY_GROUP",
				Validation:     rule(domain.ValidationRule{Type: domain.ValidationFieldPresent, Field: "groupName", ResourceType: domain.ResourceTypeSecurityGroup}),
			},
		},
	}
}
