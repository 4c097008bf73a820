package catalog

import "github.com/roach88/deeplink/internal/route"

// Route names, in table order.
const (
	RouteSecurityFeedback           route.Name = "securityFeedback"
	RouteUserContentPosts           route.Name = "userContentPosts"
	RouteResolveShareLink           route.Name = "resolveShareLink"
	RouteGiftCards                  route.Name = "giftCards"
	RouteExternalWebLink            route.Name = "externalWebLink"
	RouteChat                       route.Name = "chat"
	RouteAppeals                    route.Name = "appeals"
	RouteHome                       route.Name = "home"
	RouteExperienceEventDetails     route.Name = "experienceEventDetails"
	RouteCrossDeviceLogin           route.Name = "crossDeviceLogin"
	RouteContacts                   route.Name = "contacts"
	RouteAvatarClothingSort         route.Name = "avatarClothingSort"
	RouteAvatarProfilePictureEditor route.Name = "avatarProfilePictureEditor"
	RouteAvatarMarketplace          route.Name = "avatarMarketplace"
	RouteUserFriends                route.Name = "userFriends"
	RouteAvatarCustomization        route.Name = "avatarCustomization"
	RouteCommunityProfile           route.Name = "communityProfile"
	RouteUserProfile                route.Name = "userProfile"
	RouteNavigationMore             route.Name = "navigationMore"
	RouteCharts                     route.Name = "charts"
	RouteItemDetails                route.Name = "itemDetails"
	RouteSettings                   route.Name = "settings"
	RouteJoinUser                   route.Name = "joinUser"
	RouteItemQRCodeRedemption       route.Name = "itemQRCodeRedemption"
	RouteJoinPlace                  route.Name = "joinPlace"
	RouteExperienceDetails          route.Name = "experienceDetails"
)
